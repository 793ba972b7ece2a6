package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"notebook/internal/bootstrap"
	"notebook/internal/platform/config"
	"notebook/internal/platform/logging"
)

type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "notebook",
		Short:         "Topic link notebook service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <data-dir>/notebook.yaml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", ".", "directory holding the topic store")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newTopicsCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func loadApp(ctx context.Context, opts *rootOptions) (*bootstrap.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: os.Stderr})
	return bootstrap.New(ctx, cfg, logger)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve AddTopicWithWikiLink until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			return app.NotebookCLI.Serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "add <topic>",
		Short: "Look up a topic and record its link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if local {
				out := app.NotebookCLI.AddTopic(ctx, args[0])
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			}
			msg, err := app.RPCClient.AddTopicWithWikiLink(ctx, app.Config.Server.Addr, args[0])
			if err != nil {
				return fmt.Errorf("call %s: %w", app.Config.Server.Addr, err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "run in-process against the local store instead of the server")
	return cmd
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	var writeConfig bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the topic store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.NotebookCLI.Initialize(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "store ready (%s)\n", app.Config.Store.Backend)
			if !writeConfig {
				return nil
			}
			path := opts.configPath
			if path == "" {
				path = filepath.Join(opts.dataDir, config.FileName)
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config %s already exists", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, app.Config); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "also write the effective config file")
	return cmd
}

func newTopicsCmd(opts *rootOptions) *cobra.Command {
	topics := &cobra.Command{Use: "topics", Short: "Inspect recorded topics"}

	var remote bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List topics in insertion order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			type row struct{ name, link string }
			rows := []row{}
			if remote {
				items, err := app.RPCClient.ListTopics(ctx, app.Config.Server.Addr)
				if err != nil {
					return err
				}
				for _, item := range items {
					rows = append(rows, row{item.Name, item.Link})
				}
			} else {
				items, err := app.NotebookCLI.ListTopics(ctx)
				if err != nil {
					return err
				}
				for _, item := range items {
					rows = append(rows, row{item.Name, item.Link})
				}
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no topics")
				return nil
			}
			for _, r := range rows {
				link := r.link
				if link == "" {
					link = "-"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.name, link)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&remote, "remote", false, "query the running server instead of the local store")

	var remoteShow bool
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			var name, link string
			if remoteShow {
				topic, err := app.RPCClient.GetTopic(ctx, app.Config.Server.Addr, args[0])
				if err != nil {
					return err
				}
				name, link = topic.Name, topic.Link
			} else {
				topic, err := app.NotebookCLI.GetTopic(ctx, args[0])
				if err != nil {
					return err
				}
				name, link = topic.Name, topic.Link
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "topic: %s\nlink: %s\n", name, link)
			return nil
		},
	}
	show.Flags().BoolVar(&remoteShow, "remote", false, "query the running server instead of the local store")

	topics.AddCommand(list, show)
	return topics
}
