package rpc

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	"notebook/internal/platform/grpcjson"
)

const (
	PluginMapKey = "resolver"
	serviceName  = "notebook.resolver.v1.Resolver"
	methodLookup = "/" + serviceName + "/Lookup"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "NOTEBOOK_RESOLVER_PLUGIN",
	MagicCookieValue: "notebook",
}

type LookupRequest struct {
	Topic string `json:"topic"`
}

type LookupResponse struct {
	Link  string `json:"link"`
	Found bool   `json:"found"`
}

type ResolverServer interface {
	Lookup(ctx context.Context, in *LookupRequest) (*LookupResponse, error)
}

type ResolverClient interface {
	Lookup(ctx context.Context, in *LookupRequest) (*LookupResponse, error)
}

type resolverClient struct {
	conn grpc.ClientConnInterface
}

func NewResolverClient(conn grpc.ClientConnInterface) ResolverClient {
	return &resolverClient{conn: conn}
}

func (c *resolverClient) Lookup(ctx context.Context, in *LookupRequest) (*LookupResponse, error) {
	out := &LookupResponse{}
	if err := c.conn.Invoke(ctx, methodLookup, in, out, grpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterResolverServer(server grpc.ServiceRegistrar, impl ResolverServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ResolverServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Lookup",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &LookupRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Lookup(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodLookup}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*LookupRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Lookup(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "notebook/resolver/v1/resolver.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl ResolverServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterResolverServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewResolverClient(conn), nil
}

func PluginMap(impl ResolverServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
