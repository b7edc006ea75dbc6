package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"ideapardaz/infrastructure/config"
	"ideapardaz/infrastructure/di"
	"ideapardaz/interfaces/cli"
	"ideapardaz/interfaces/http/rest/middleware"
	"ideapardaz/pkg/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ideactl:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	env := cli.Env{
		Store:       container.Sessions.Store,
		DefaultUser: middleware.LocalUserID,
	}
	if cfg.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return err
		}
		env.Sign = verifier.Sign
	}

	return cli.NewRootCommand(env).ExecuteContext(ctx)
}

// loadConfig keeps ideas on disk unless a backend is chosen explicitly
func loadConfig() (*config.Config, error) {
	if os.Getenv(config.EnvPrefix+"_BACKEND") == "" && os.Getenv(config.FileEnvVar) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		os.Setenv(config.EnvPrefix+"_BACKEND", config.BackendFile)
		if os.Getenv(config.EnvPrefix+"_DATA_DIR") == "" {
			os.Setenv(config.EnvPrefix+"_DATA_DIR", filepath.Join(home, ".ideapardaz"))
		}
	}
	if os.Getenv(config.EnvPrefix+"_LOG_LEVEL") == "" {
		os.Setenv(config.EnvPrefix+"_LOG_LEVEL", "warn")
	}
	return config.Load()
}
