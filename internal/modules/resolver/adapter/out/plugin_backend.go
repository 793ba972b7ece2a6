package out

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	resolverrpc "notebook/internal/modules/resolver/adapter/out/rpc"
	"notebook/internal/modules/resolver/domain"
	resolverout "notebook/internal/modules/resolver/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/logging"
)

const defaultStartTimeout = 3 * time.Second

// PluginBackend launches an external resolver binary for each lookup.
type PluginBackend struct {
	binary       string
	startTimeout time.Duration
	logger       hclog.Logger
}

func NewPluginBackend(binary string, logger hclog.Logger) (resolverout.Backend, error) {
	if strings.TrimSpace(binary) == "" {
		return nil, fmt.Errorf("%w: plugin binary is required", apperrors.ErrInvalidInput)
	}
	return &PluginBackend{
		binary:       binary,
		startTimeout: defaultStartTimeout,
		logger:       logging.OrDiscard(logger).Named("plugin"),
	}, nil
}

func (b *PluginBackend) Name() string { return "plugin" }

func (b *PluginBackend) Lookup(ctx context.Context, topic string) (string, error) {
	client, closeFn, err := b.connect()
	if err != nil {
		return "", err
	}
	defer closeFn()

	resp, err := client.Lookup(ctx, &resolverrpc.LookupRequest{Topic: topic})
	if err != nil {
		return "", fmt.Errorf("plugin lookup: %w", err)
	}
	if !resp.Found {
		return "", fmt.Errorf("%w: %q", domain.ErrNoResult, topic)
	}
	return resp.Link, nil
}

func (b *PluginBackend) connect() (resolverrpc.ResolverClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  resolverrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          resolverrpc.PluginMap(nil),
		Cmd:              exec.Command(b.binary),
		Managed:          true,
		StartTimeout:     b.startTimeout,
		Logger:           b.logger,
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start plugin client: %w", err)
	}
	raw, err := rpcClient.Dispense(resolverrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense plugin: %w", err)
	}
	typed, ok := raw.(resolverrpc.ResolverClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("plugin rpc client type mismatch")
	}
	return typed, closeFn, nil
}
