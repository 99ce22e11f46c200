package serverfx

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/0x5457/corpus-embeddings/internal/config"
	"github.com/0x5457/corpus-embeddings/internal/embeddings"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func TestServerModule(t *testing.T) {
	svc, err := encoder.NewService(embeddings.NewLocal(8), encoder.Options{VectorSize: 8})
	require.NoError(t, err)

	var srv *server.Server
	app := fx.New(
		Module,
		fx.Supply(
			&config.Config{Host: "127.0.0.1", Port: 0},
			zap.NewNop(),
			svc,
		),
		fx.Populate(&srv),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/embed-documents")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp2, err := http.Post("http://"+srv.Addr()+"/embed-documents", "application/json",
		strings.NewReader(`{"texts":["a"]}`))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	body, _ := io.ReadAll(resp2.Body)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, string(body), `"model":"local-fixed(8)"`)
}
