// Package cli implements the chatkit command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/chatkit/chat"
	"github.com/randalmurphal/chatkit/config"
	"github.com/randalmurphal/chatkit/openai"
	"github.com/randalmurphal/chatkit/provider"
)

// version is set at build time via -ldflags.
var version = "dev"

// rootOptions holds the global flags.
type rootOptions struct {
	configFile  string
	model       string
	baseURL     string
	metricsAddr string
	verbose     bool
	noColor     bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chatkit",
		Short: "Chat with OpenAI-compatible models from the terminal",
		Long: `chatkit talks to any server that implements the OpenAI chat completions API.

  chatkit models                  List chat models
  chatkit send "hello"            Send one message and print the reply
  chatkit chat                    Start an interactive conversation
  chatkit config init             Write a starter config file

Settings come from a config file (chatkit.yaml, .yml, .toml or .json in the
working directory or the user config directory), then CHATKIT_* environment
variables (a .env file is loaded first), then flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
			if opts.noColor {
				color.NoColor = true
			}
			loadDotEnv()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: discovered chatkit.{yaml,yml,toml,json})")
	flags.StringVarP(&opts.model, "model", "m", "", "model id (default: config, then the first listed model)")
	flags.StringVar(&opts.baseURL, "base-url", "", "API root, e.g. http://localhost:11434/v1")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newModelsCmd(opts),
		newSendCmd(opts),
		newChatCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadDotEnv reads .env from the working directory. Existing variables win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("load .env", slog.Any("error", err))
	}
}

// resolveConfig layers defaults, the config file, the environment and flags.
// It returns the config and the file it was read from, if any.
func resolveConfig(opts *rootOptions) (provider.Config, string, error) {
	cfg := provider.DefaultConfig().WithProvider(provider.DefaultProvider)

	path := opts.configFile
	if path == "" {
		if found, ok := config.Discover(config.DefaultDirs()...); ok {
			path = found
		}
	}
	if path != "" {
		f, err := config.Load(path)
		if err != nil {
			return cfg, path, err
		}
		cfg = f.Apply(cfg)
		slog.Debug("using config file", slog.String("path", path))
	}

	cfg.LoadFromEnv()

	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.metricsAddr != "" {
		cfg = cfg.WithOption("metrics", true)
	}
	return cfg, path, nil
}

// newSession creates a client for cfg and a session using it.
// The caller closes the returned client.
func newSession(cfg provider.Config) (provider.Client, *chat.Session, error) {
	client, err := provider.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	session := chat.NewSession(client,
		chat.WithModel(cfg.Model),
		chat.WithSystemPrompt(cfg.SystemPrompt),
		chat.WithMaxTokens(cfg.MaxTokens),
	)
	return client, session, nil
}

// ensureModel selects the first listed model when none is configured.
func ensureModel(ctx context.Context, session *chat.Session) error {
	if session.SelectedModelID() != "" {
		return nil
	}
	models, err := session.Models(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		return errors.New("no models available; set one with --model")
	}
	return nil
}

// errorMessage returns the text shown to the user for a failed request.
// API errors show the server's message.
func errorMessage(err error) string {
	if apiErr, ok := openai.AsAPIError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}

// startMetrics serves metrics when --metrics-addr is set.
// The returned func is always safe to call.
func startMetrics(opts *rootOptions) (func(), error) {
	if opts.metricsAddr == "" {
		return func() {}, nil
	}
	_, stop, err := serveMetrics(opts.metricsAddr)
	return stop, err
}

// serveMetrics exposes the default Prometheus registry on addr.
// It returns the bound address and a func that shuts the server down.
func serveMetrics(addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics listener: %w", err)
	}
	bound := ln.Addr().String()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server stopped", slog.String("addr", bound), slog.Any("error", err))
		}
	}()
	slog.Info("serving metrics", slog.String("addr", bound))

	return bound, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
