package metricsfx

import (
	"context"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

// NewMetrics creates the metrics set and serves it when an address is configured
func NewMetrics(params Params) *metrics.Metrics {
	m := metrics.New()
	addr := params.Config.MetricsAddr
	if addr == "" {
		return m
	}
	srv := metrics.NewServer(addr, m)
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.Start(func(err error) {
				params.Logger.Error("metrics server failed", zap.Error(err))
			})
			params.Logger.Info("serving metrics", zap.String("addr", addr))
			return nil
		},
		OnStop: srv.Shutdown,
	})
	return m
}

// Module provides Prometheus metrics
var Module = fx.Module("metrics",
	fx.Provide(NewMetrics),
)
