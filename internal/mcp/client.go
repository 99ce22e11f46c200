package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	clientName  = "corpus-embeddings-cli"
	initTimeout = 10 * time.Second
)

// Client wraps an initialized MCP client session.
type Client struct{ c *client.Client }

// NewStdioClient launches command with args (normally this binary with "mcp")
// and speaks MCP over its stdio.
func NewStdioClient(ctx context.Context, command string, args ...string) (*Client, error) {
	return start(ctx, transport.NewStdio(command, nil, args...))
}

func NewHTTPClient(ctx context.Context, url string) (*Client, error) {
	tr, err := transport.NewStreamableHTTP(url)
	if err != nil {
		return nil, fmt.Errorf("new streamable http transport: %w", err)
	}
	return start(ctx, tr)
}

func NewSSEClient(ctx context.Context, url string) (*Client, error) {
	tr, err := transport.NewSSE(url)
	if err != nil {
		return nil, fmt.Errorf("new sse transport: %w", err)
	}
	return start(ctx, tr)
}

// NewInProcessClient talks to srv without any transport in between.
func NewInProcessClient(ctx context.Context, srv *server.MCPServer) (*Client, error) {
	return start(ctx, transport.NewInProcessTransport(srv))
}

func start(ctx context.Context, tr transport.Interface) (*Client, error) {
	cli := client.NewClient(tr)

	// Streaming transports live as long as the context given to Start.
	if err := cli.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	ctxInit, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: ServerVersion}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	if _, err := cli.Initialize(ctxInit, initReq); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("init mcp client: %w", err)
	}
	return &Client{c: cli}, nil
}

func (c *Client) Close() error { return c.c.Close() }

func (c *Client) Call(
	ctx context.Context,
	name string,
	args map[string]any,
) (*mcp.CallToolResult, error) {
	return c.c.CallTool(
		ctx,
		mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}},
	)
}

func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	res, err := c.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return res.Tools, nil
}
