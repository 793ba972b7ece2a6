package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-plugin"

	resolverrpc "notebook/internal/modules/resolver/adapter/out/rpc"
)

// pageIDs is the fixed catalogue this plugin answers from.
var pageIDs = map[string]int{
	"Go":     25039021,
	"Python": 23862,
	"Rust":   29414838,
}

type server struct{}

func (s *server) Lookup(_ context.Context, in *resolverrpc.LookupRequest) (*resolverrpc.LookupResponse, error) {
	id, ok := pageIDs[strings.TrimSpace(in.Topic)]
	if !ok {
		return &resolverrpc.LookupResponse{}, nil
	}
	return &resolverrpc.LookupResponse{
		Link:  fmt.Sprintf("https://en.wikipedia.org/?curid=%d", id),
		Found: true,
	}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: resolverrpc.HandshakeConfig,
		Plugins:         resolverrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
