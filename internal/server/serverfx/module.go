package serverfx

import (
	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/metrics"
	"github.com/0x5457/corpus-embeddings/internal/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Service   *encoder.Service
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics `optional:"true"`
}

// NewServer creates the HTTP server and ties it to the application lifecycle
func NewServer(params Params) *server.Server {
	srv := server.New(params.Service, params.Config.Addr(), params.Logger, params.Metrics)
	params.Lifecycle.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop:  srv.Shutdown,
	})
	return srv
}

// Module provides the embedding HTTP server
var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(func(*server.Server) {}),
)
