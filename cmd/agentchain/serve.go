package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentchain"
	"github.com/hupe1980/agentchain/agent"
	"github.com/hupe1980/agentchain/artifact"
	"github.com/hupe1980/agentchain/code"
	"github.com/hupe1980/agentchain/config"
	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/logging"
	"github.com/hupe1980/agentchain/model"
	"github.com/hupe1980/agentchain/model/anthropic"
	"github.com/hupe1980/agentchain/model/ollama"
	"github.com/hupe1980/agentchain/model/openai"
	"github.com/hupe1980/agentchain/server"
	"github.com/hupe1980/agentchain/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewChainLogger(&logging.Config{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		Output:    os.Stdout,
		Component: "server",
	})

	backend, err := buildBackend(cfg)
	if err != nil {
		return fmt.Errorf("building model backend: %w", err)
	}

	sessions, err := buildSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("building session store: %w", err)
	}

	uploads, err := buildUploadStore(cfg)
	if err != nil {
		return fmt.Errorf("building upload store: %w", err)
	}

	chain := agentchain.New(func(o *agentchain.Options) {
		o.EntryAgent = cfg.Orchestrator.EntryAgent
		o.AgentTimeout = cfg.Orchestrator.AgentTimeout
		o.MaxHistory = cfg.Orchestrator.MaxHistory
		o.SessionStore = sessions
		o.UploadStore = uploads
		o.Logger = logger
	})

	var executor code.Executor = code.NopExecutor{}
	if cfg.Code.Enabled {
		executor = code.NewCommandExecutor(cfg.Code.Interpreter)
	}

	chain.RegisterAgent(agent.NewCodeInterpreter(backend, func(o *agent.CodeInterpreterOptions) {
		o.Executor = executor
	}))
	chain.RegisterAgent(agent.NewCalculator())
	chain.RegisterAgent(agent.NewAnswerSynthesiser(backend))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(chain, func(o *server.Options) { o.Logger = logger }),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "provider", backend.Info().Provider)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func buildBackend(cfg *config.Config) (model.Backend, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			o.APIKey = cfg.Model.APIKey
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
		}), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			o.APIKey = cfg.Model.APIKey
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
		}), nil
	case "ollama":
		return ollama.New(func(o *ollama.Options) {
			o.BaseURL = cfg.Model.OllamaHost
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
		})
	case "mock":
		return model.NewMockBackend(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func buildSessionStore(cfg *config.Config) (core.SessionStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return session.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return session.NewInMemoryStore(), nil
	}
}

func buildUploadStore(cfg *config.Config) (artifact.Store, error) {
	if cfg.Storage.UploadDir == "" {
		return artifact.NewInMemoryStore(), nil
	}
	return artifact.NewDiskStore(cfg.Storage.UploadDir)
}
