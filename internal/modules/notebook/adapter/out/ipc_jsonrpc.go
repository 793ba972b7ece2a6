package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/logging"
)

const (
	rpcServiceName = "Notebook"
	callDeadline   = 10 * time.Second
)

type JSONRPCServer struct {
	logger hclog.Logger
}

type JSONRPCClient struct {
	timeout time.Duration
}

func NewJSONRPCServer(logger hclog.Logger) notebookout.RPCServer {
	return &JSONRPCServer{logger: logging.OrDiscard(logger).Named("jsonrpc")}
}

// NewJSONRPCClient dials a fresh connection per call; timeout bounds each call and defaults to 10s.
func NewJSONRPCClient(timeout time.Duration) notebookout.RPCClient {
	if timeout <= 0 {
		timeout = callDeadline
	}
	return &JSONRPCClient{timeout: timeout}
}

type TopicRequest struct {
	Topic string
}

type TopicReply struct {
	Message string
}

type GetTopicRequest struct {
	Name string
}

type TopicList struct {
	Topics []domain.Topic
}

type Empty struct{}

type rpcHandler struct {
	h      notebookout.RPCHandler
	logger hclog.Logger
}

func (s *rpcHandler) AddTopicWithWikiLink(req TopicRequest, resp *TopicReply) error {
	resp.Message = recoverMessage(s.logger, "AddTopicWithWikiLink", func() string {
		return s.h.AddTopicWithWikiLink(context.Background(), req.Topic)
	})
	return nil
}

func (s *rpcHandler) ListTopics(_ Empty, resp *TopicList) error {
	topics, err := s.h.ListTopics(context.Background())
	if err != nil {
		return err
	}
	resp.Topics = topics
	return nil
}

func (s *rpcHandler) GetTopic(req GetTopicRequest, resp *domain.Topic) error {
	topic, err := s.h.GetTopic(context.Background(), req.Name)
	if err != nil {
		return err
	}
	*resp = topic
	return nil
}

func (s *JSONRPCServer) Serve(ctx context.Context, addr string, handler notebookout.RPCHandler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(rpcServiceName, &rpcHandler{h: handler, logger: s.logger}); err != nil {
		return fmt.Errorf("register rpc handler: %w", err)
	}
	s.logger.Info("listening", "addr", ln.Addr().String())

	conns := &connSet{live: map[net.Conn]struct{}{}}
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
			conns.closeAll()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		conns.closeAll()
		conns.wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		if !conns.add(conn) {
			_ = conn.Close()
			continue
		}
		go func() {
			defer conns.remove(conn)
			rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
		}()
	}
}

// connSet tracks accepted connections so shutdown can close them. Once closed it refuses new ones.
type connSet struct {
	mu     sync.Mutex
	live   map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func (c *connSet) add(conn net.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.live[conn] = struct{}{}
	c.wg.Add(1)
	return true
}

func (c *connSet) remove(conn net.Conn) {
	c.mu.Lock()
	delete(c.live, conn)
	c.mu.Unlock()
	_ = conn.Close()
	c.wg.Done()
}

func (c *connSet) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for conn := range c.live {
		_ = conn.Close()
	}
}

func (c *JSONRPCClient) AddTopicWithWikiLink(ctx context.Context, addr, topic string) (string, error) {
	client, err := dialClient(ctx, addr, c.timeout)
	if err != nil {
		return "", err
	}
	defer client.Close()
	resp := TopicReply{}
	if err := client.Call(rpcServiceName+".AddTopicWithWikiLink", TopicRequest{Topic: topic}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *JSONRPCClient) ListTopics(ctx context.Context, addr string) ([]domain.Topic, error) {
	client, err := dialClient(ctx, addr, c.timeout)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	resp := TopicList{}
	if err := client.Call(rpcServiceName+".ListTopics", Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}

func (c *JSONRPCClient) GetTopic(ctx context.Context, addr, name string) (domain.Topic, error) {
	client, err := dialClient(ctx, addr, c.timeout)
	if err != nil {
		return domain.Topic{}, err
	}
	defer client.Close()
	resp := domain.Topic{}
	if err := client.Call(rpcServiceName+".GetTopic", GetTopicRequest{Name: name}, &resp); err != nil {
		return domain.Topic{}, remoteError(err)
	}
	return resp, nil
}

func dialClient(ctx context.Context, addr string, timeout time.Duration) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return client, nil
}

// remoteError restores the not-found sentinel that net/rpc flattens into text.
func remoteError(err error) error {
	var se rpc.ServerError
	if errors.As(err, &se) && strings.Contains(string(se), apperrors.ErrNotFound.Error()) {
		return fmt.Errorf("%s: %w", string(se), apperrors.ErrNotFound)
	}
	return err
}

// recoverMessage runs call and turns a panic into an error message so callers always get text back.
func recoverMessage(logger hclog.Logger, method string, call func() string) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic", "method", method, "panic", r)
			msg = fmt.Sprintf("An error occurred while updating the topic store: %v", r)
		}
	}()
	return call()
}
