package main

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-audience/components/audience"
	audiencepkg "github.com/goliatone/go-audience/pkg/audience"
)

type catalogCmd struct {
	Path     string `type:"path" help:"Catalog file (defaults to the config catalog, then the built-in one)."`
	Validate bool   `help:"Only validate the catalog."`
}

func (cmd *catalogCmd) Run(_ context.Context, g *globals) error {
	path := cmd.Path
	if path == "" {
		cfg, err := audiencepkg.LoadConfig(g.Config)
		if err != nil {
			return err
		}
		path = cfg.Catalog
	}
	catalog := audience.DefaultEventCatalog()
	if path != "" {
		loaded, err := audience.ReadEventCatalog(path)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	if cmd.Validate {
		fmt.Fprintf(stdout, "✓ catalog valid: %d events\n", len(catalog.Events()))
		return nil
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(catalog); err != nil {
		return fmt.Errorf("audiencectl: encode catalog: %w", err)
	}
	return enc.Close()
}
