package mcp_tools

import (
	"context"
	"net/http"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ToolName is the name agents call the lookup by.
const ToolName = "whois_lookup"

// Resolver answers one lookup.
type Resolver interface {
	Lookup(ctx context.Context, query string) (structs.LookupEnvelope, error)
}

// LookupInput is the argument object of the lookup tool.
type LookupInput struct {
	Query string `json:"query" jsonschema:"domain name, IP address, CIDR block or AS number (e.g. AS13335)"`
}

// Server exposes the lookup as an MCP tool.
type Server struct {
	resolver Resolver
	server   *mcp.Server
}

// NewServer registers the lookup tool on a fresh MCP server.
func NewServer(resolver Resolver, version string) *Server {
	s := &Server{
		resolver: resolver,
		server:   mcp.NewServer(&mcp.Implementation{Name: "next-whois", Version: version}, nil),
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolName,
		Description: "Look up registration data for a domain, IP address, CIDR block or AS number. " +
			"RDAP and WHOIS are queried together and merged; the result says which source answered.",
	}, s.lookup)
	return s
}

func (s *Server) lookup(ctx context.Context, req *mcp.CallToolRequest, in LookupInput) (*mcp.CallToolResult, structs.LookupEnvelope, error) {
	env, err := s.resolver.Lookup(ctx, in.Query)
	if err != nil {
		return nil, structs.LookupEnvelope{}, err
	}
	zap.L().Debug("mcp lookup", zap.String("query", in.Query), zap.Bool("status", env.Status), zap.Bool("cached", env.Cached))
	return nil, env, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunStdio serves a single client over stdin/stdout until ctx is done or the client leaves.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
