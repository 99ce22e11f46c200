package loggerfx

import (
	"context"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "corpus-embeddings"

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
}

func NewLogger(params Params) (*zap.Logger, error) {
	log, err := logger.New(params.Config.LogLevel, serviceName)
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stderr sync fails on some platforms
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}

// Module provides the process logger
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)
