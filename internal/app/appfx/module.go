package appfx

import (
	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	"github.com/0x5457/corpus-embeddings/internal/config/configfx"
	"github.com/0x5457/corpus-embeddings/internal/embeddings/embeddingsfx"
	"github.com/0x5457/corpus-embeddings/internal/encoder/encoderfx"
	"github.com/0x5457/corpus-embeddings/internal/indexer/indexerfx"
	"github.com/0x5457/corpus-embeddings/internal/logger/loggerfx"
	"github.com/0x5457/corpus-embeddings/internal/mcp/mcpfx"
	"github.com/0x5457/corpus-embeddings/internal/metrics/metricsfx"
	"github.com/0x5457/corpus-embeddings/internal/parser/parserfx"
	"github.com/0x5457/corpus-embeddings/internal/search/searchfx"
	"github.com/0x5457/corpus-embeddings/internal/server/serverfx"
	"github.com/0x5457/corpus-embeddings/internal/storage/storagefx"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fx lifecycle events go through the process logger at debug level.
var fxLogger = fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
	l := &fxevent.ZapLogger{Logger: log.Named("fx")}
	l.UseLogLevel(zapcore.DebugLevel)
	return l
})

// EncodeModule is the shared core: configuration, logging and the loaded model.
var EncodeModule = fx.Options(
	fxLogger,
	configfx.Module,
	loggerfx.Module,
	storagefx.CacheModule,
	embeddingsfx.Module,
	encoderfx.Module,
)

// ServeModule runs the embedding HTTP server.
var ServeModule = fx.Options(
	EncodeModule,
	metricsfx.Module,
	serverfx.Module,
)

// CommandModule backs the one-shot commands that need no corpus store.
var CommandModule = fx.Options(
	EncodeModule,
	cmdsfx.Module,
)

// CorpusModule adds the corpus store, indexer, search and MCP tools.
var CorpusModule = fx.Options(
	EncodeModule,
	parserfx.Module,
	storagefx.Module,
	indexerfx.Module,
	searchfx.Module,
	mcpfx.Module,
	cmdsfx.Module,
)

// NewServeApp creates the embedding server app listening on the configured port.
func NewServeApp(opts ...fx.Option) *fx.App {
	return fx.New(ServeModule, fx.Options(opts...))
}
