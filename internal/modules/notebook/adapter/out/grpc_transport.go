package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	notebookrpc "notebook/internal/modules/notebook/adapter/out/rpc"
	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/logging"
)

type GRPCServer struct {
	logger hclog.Logger
}

type GRPCClient struct {
	timeout time.Duration
}

func NewGRPCServer(logger hclog.Logger) notebookout.RPCServer {
	return &GRPCServer{logger: logging.OrDiscard(logger).Named("grpc")}
}

func NewGRPCClient(timeout time.Duration) notebookout.RPCClient {
	if timeout <= 0 {
		timeout = callDeadline
	}
	return &GRPCClient{timeout: timeout}
}

type grpcHandler struct {
	h      notebookout.RPCHandler
	logger hclog.Logger
}

func (g *grpcHandler) AddTopicWithWikiLink(ctx context.Context, in *notebookrpc.TopicRequest) (*notebookrpc.TopicReply, error) {
	msg := recoverMessage(g.logger, "AddTopicWithWikiLink", func() string {
		return g.h.AddTopicWithWikiLink(ctx, in.Topic)
	})
	return &notebookrpc.TopicReply{Message: msg}, nil
}

func (g *grpcHandler) ListTopics(ctx context.Context, _ *notebookrpc.Empty) (*notebookrpc.TopicList, error) {
	topics, err := g.h.ListTopics(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &notebookrpc.TopicList{Topics: make([]notebookrpc.Topic, 0, len(topics))}
	for _, t := range topics {
		out.Topics = append(out.Topics, notebookrpc.Topic{Name: t.Name, Link: t.Link})
	}
	return out, nil
}

func (g *grpcHandler) GetTopic(ctx context.Context, in *notebookrpc.GetTopicRequest) (*notebookrpc.Topic, error) {
	topic, err := g.h.GetTopic(ctx, in.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &notebookrpc.Topic{Name: topic.Name, Link: topic.Link}, nil
}

func (s *GRPCServer) Serve(ctx context.Context, addr string, handler notebookout.RPCHandler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := grpc.NewServer(grpc.UnaryInterceptor(s.logCalls))
	notebookrpc.RegisterNotebookServer(srv, &grpcHandler{h: handler, logger: s.logger})
	s.logger.Info("listening", "addr", ln.Addr().String())

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			srv.GracefulStop()
		case <-stop:
		}
	}()
	defer close(stop)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("serve grpc: %w", err)
	}
	return nil
}

func (s *GRPCServer) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Debug("call failed", "method", info.FullMethod, "error", err)
	}
	return resp, err
}

func (c *GRPCClient) AddTopicWithWikiLink(ctx context.Context, addr, topic string) (string, error) {
	var msg string
	err := withNotebookClient(ctx, addr, c.timeout, func(ctx context.Context, client notebookrpc.NotebookClient) error {
		resp, err := client.AddTopicWithWikiLink(ctx, &notebookrpc.TopicRequest{Topic: topic})
		if err != nil {
			return err
		}
		msg = resp.Message
		return nil
	})
	return msg, err
}

func (c *GRPCClient) ListTopics(ctx context.Context, addr string) ([]domain.Topic, error) {
	var topics []domain.Topic
	err := withNotebookClient(ctx, addr, c.timeout, func(ctx context.Context, client notebookrpc.NotebookClient) error {
		resp, err := client.ListTopics(ctx)
		if err != nil {
			return err
		}
		topics = make([]domain.Topic, 0, len(resp.Topics))
		for _, t := range resp.Topics {
			topics = append(topics, domain.Topic{Name: t.Name, Link: t.Link})
		}
		return nil
	})
	return topics, err
}

func (c *GRPCClient) GetTopic(ctx context.Context, addr, name string) (domain.Topic, error) {
	topic := domain.Topic{}
	err := withNotebookClient(ctx, addr, c.timeout, func(ctx context.Context, client notebookrpc.NotebookClient) error {
		resp, err := client.GetTopic(ctx, &notebookrpc.GetTopicRequest{Name: name})
		if err != nil {
			return fromStatus(err)
		}
		topic = domain.Topic{Name: resp.Name, Link: resp.Link}
		return nil
	})
	return topic, err
}

func withNotebookClient(ctx context.Context, addr string, timeout time.Duration, fn func(context.Context, notebookrpc.NotebookClient) error) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx, notebookrpc.NewNotebookClient(conn))
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), apperrors.ErrNotFound)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), apperrors.ErrInvalidInput)
	default:
		return err
	}
}
