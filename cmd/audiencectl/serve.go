package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-audience/components/audience"
	"github.com/goliatone/go-audience/components/audience/gorouter"
	audiencepkg "github.com/goliatone/go-audience/pkg/audience"
)

type serveCmd struct {
	Address  string `help:"Listen address (overrides the config)."`
	BasePath string `help:"Route prefix (overrides the config)."`
}

func (cmd *serveCmd) Run(_ context.Context, g *globals) error {
	cfg, err := audiencepkg.LoadConfig(g.Config)
	if err != nil {
		return err
	}
	if cmd.Address != "" {
		cfg.Address = cmd.Address
	}
	if cmd.BasePath != "" {
		cfg.BasePath = cmd.BasePath
	}
	logger := g.logger(os.Stderr)
	telemetry := audience.NewLoggerTelemetry(logger)
	opts, err := cfg.Options(telemetry)
	if err != nil {
		return err
	}
	service := audiencepkg.NewService(opts)

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:   server.Router(),
		API:      audiencepkg.NewHandlers(service, telemetry),
		BasePath: cfg.BasePath,
	}); err != nil {
		return err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("base_path", cfg.BasePath).
		Str("locale", cfg.Locale).
		Dur("session_ttl", cfg.SessionTTL).
		Int("catalog_events", len(service.Catalog().Events())).
		Msg("audience routes ready")
	return server.Serve(cfg.Address)
}
