package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/0x5457/corpus-embeddings/cmd/cmdsfx"
	appmcp "github.com/0x5457/corpus-embeddings/internal/mcp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

// NewMCPClientCommand talks to a running (or spawned) MCP server.
func NewMCPClientCommand() *cobra.Command {
	var (
		transport string
		address   string
	)

	cmd := &cobra.Command{
		Use:   "mcp-client",
		Short: "Call tools on a corpus-embeddings MCP server",
	}
	cmd.AddCommand(
		newMCPCallCommand(&transport, &address),
		newMCPListToolsCommand(&transport, &address),
	)

	cmd.PersistentFlags().
		StringVarP(&transport, "transport", "t", cmdsfx.TransportStdio, "transport (stdio, http, sse)")
	cmd.PersistentFlags().
		StringVarP(&address, "address", "a", "", "server URL (http/sse), ignored for stdio")

	return cmd
}

func newMCPCallCommand(transport, address *string) *cobra.Command {
	var (
		rawArgs string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call an MCP tool with JSON arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := createMCPClient(ctx, *transport, *address)
			if err != nil {
				return fmt.Errorf("create MCP client failed: %w", err)
			}
			defer client.Close() //nolint:errcheck

			res, err := client.Call(ctx, args[0], toolArgs)
			if err != nil {
				return fmt.Errorf("call %s: %w", args[0], err)
			}
			if res.IsError {
				for _, c := range res.Content {
					if text, ok := c.(mcp.TextContent); ok {
						return fmt.Errorf("tool error: %s", text.Text)
					}
				}
				return fmt.Errorf("tool %s failed", args[0])
			}

			out := res.StructuredContent
			if out == nil {
				out = res.Content
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "", `tool arguments as JSON, e.g. '{"texts":["a"]}'`)
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "call timeout")

	return cmd
}

func newMCPListToolsCommand(transport, address *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list-tools",
		Short: "List available MCP tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			client, err := createMCPClient(ctx, *transport, *address)
			if err != nil {
				return fmt.Errorf("create MCP client failed: %w", err)
			}
			defer client.Close() //nolint:errcheck

			tools, err := client.ListTools(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tools: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(tools) == 0 {
				fmt.Fprintln(w, "No tools available")
				return nil
			}

			fmt.Fprintf(w, "Available MCP tools (%d):\n\n", len(tools))
			for i, tool := range tools {
				fmt.Fprintf(w, "%d. %s\n", i+1, tool.Name)
				if tool.Description != "" {
					fmt.Fprintf(w, "   Description: %s\n", tool.Description)
				}
				if len(tool.InputSchema.Properties) > 0 {
					fmt.Fprintf(w, "   Parameters:\n")
					for name, prop := range tool.InputSchema.Properties {
						required := ""
						if slices.Contains(tool.InputSchema.Required, name) {
							required = " (required)"
						}
						desc := ""
						if propMap, ok := prop.(map[string]any); ok {
							if d, ok := propMap["description"].(string); ok {
								desc = ": " + d
							}
						}
						fmt.Fprintf(w, "     - %s%s%s\n", name, required, desc)
					}
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func createMCPClient(ctx context.Context, transport, address string) (*appmcp.Client, error) {
	switch transport {
	case cmdsfx.TransportStdio:
		self, err := os.Executable()
		if err != nil {
			return nil, err
		}
		return appmcp.NewStdioClient(ctx, self, "mcp")
	case cmdsfx.TransportHTTP:
		if address == "" {
			address = "http://127.0.0.1:8080/mcp"
		}
		return appmcp.NewHTTPClient(ctx, address)
	case cmdsfx.TransportSSE:
		if address == "" {
			address = "http://127.0.0.1:8080/mcp/sse"
		}
		return appmcp.NewSSEClient(ctx, address)
	default:
		return nil, fmt.Errorf(
			"unsupported transport: %s (supported: stdio, http, sse)",
			transport,
		)
	}
}
