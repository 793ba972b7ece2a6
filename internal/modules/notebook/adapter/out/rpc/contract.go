package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"notebook/internal/platform/grpcjson"
)

const (
	serviceName                = "notebook.v1.Notebook"
	methodAddTopicWithWikiLink = "/" + serviceName + "/AddTopicWithWikiLink"
	methodListTopics           = "/" + serviceName + "/ListTopics"
	methodGetTopic             = "/" + serviceName + "/GetTopic"
)

type Empty struct{}

type TopicRequest struct {
	Topic string `json:"topic"`
}

type TopicReply struct {
	Message string `json:"message"`
}

type GetTopicRequest struct {
	Name string `json:"name"`
}

type Topic struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

type TopicList struct {
	Topics []Topic `json:"topics"`
}

type NotebookServer interface {
	AddTopicWithWikiLink(ctx context.Context, in *TopicRequest) (*TopicReply, error)
	ListTopics(ctx context.Context, in *Empty) (*TopicList, error)
	GetTopic(ctx context.Context, in *GetTopicRequest) (*Topic, error)
}

type NotebookClient interface {
	AddTopicWithWikiLink(ctx context.Context, in *TopicRequest) (*TopicReply, error)
	ListTopics(ctx context.Context) (*TopicList, error)
	GetTopic(ctx context.Context, in *GetTopicRequest) (*Topic, error)
}

type notebookClient struct {
	conn grpc.ClientConnInterface
}

func NewNotebookClient(conn grpc.ClientConnInterface) NotebookClient {
	return &notebookClient{conn: conn}
}

func (c *notebookClient) AddTopicWithWikiLink(ctx context.Context, in *TopicRequest) (*TopicReply, error) {
	out := &TopicReply{}
	if err := c.conn.Invoke(ctx, methodAddTopicWithWikiLink, in, out, grpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notebookClient) ListTopics(ctx context.Context) (*TopicList, error) {
	out := &TopicList{}
	if err := c.conn.Invoke(ctx, methodListTopics, &Empty{}, out, grpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notebookClient) GetTopic(ctx context.Context, in *GetTopicRequest) (*Topic, error) {
	out := &Topic{}
	if err := c.conn.Invoke(ctx, methodGetTopic, in, out, grpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterNotebookServer(server grpc.ServiceRegistrar, impl NotebookServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*NotebookServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "AddTopicWithWikiLink",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &TopicRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.AddTopicWithWikiLink(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAddTopicWithWikiLink}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*TopicRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.AddTopicWithWikiLink(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "ListTopics",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.ListTopics(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListTopics}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.ListTopics(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "GetTopic",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &GetTopicRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetTopic(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetTopic}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*GetTopicRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetTopic(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "notebook/v1/notebook.proto",
	}, impl)
}
