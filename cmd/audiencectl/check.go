package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-audience/components/audience"
	audiencepkg "github.com/goliatone/go-audience/pkg/audience"
)

type checkCmd struct {
	Path     string `arg:"" type:"existingfile" help:"JSON or YAML file holding a list of condition groups."`
	Locale   string `help:"Locale for warnings and summary (defaults to the config locale)."`
	Estimate int    `help:"Use a fixed estimate instead of the configured mock." default:"0"`
	Collapse int    `help:"Show at most this many summary groups (0 shows all)." default:"0"`
}

func (cmd *checkCmd) Run(ctx context.Context, g *globals) error {
	raw, err := readGroups(cmd.Path)
	if err != nil {
		return err
	}
	cfg, err := audiencepkg.LoadConfig(g.Config)
	if err != nil {
		return err
	}
	logger := g.logger(os.Stderr)
	opts, err := cfg.Options(audience.NewLoggerTelemetry(logger))
	if err != nil {
		return err
	}
	if cmd.Estimate > 0 {
		opts.Estimator = audience.FixedEstimator(cmd.Estimate)
	}
	service := audiencepkg.NewService(opts)
	state, err := service.EvaluatePayload(ctx, raw, cmd.Locale)
	if err != nil {
		return err
	}
	printState(state, cmd.Collapse)
	return nil
}

// readGroups returns the file as JSON, converting YAML documents first.
func readGroups(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("audiencectl: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("audiencectl: parse %s: %w", path, err)
		}
		return json.Marshal(doc)
	default:
		return data, nil
	}
}

func printState(state audience.State, collapse int) {
	fmt.Fprintf(stdout, "phase: %s\n", state.Phase)
	if state.Warning != nil {
		fmt.Fprintf(stdout, "warning (%s): %s\n", state.Warning.Type, state.Warning.Message)
	}
	summary := state.Summary.Collapse(collapse)
	if summary.Empty != "" {
		fmt.Fprintln(stdout, summary.Empty)
	}
	for _, group := range summary.Groups {
		label := group.Letter
		if group.Label != "" {
			label = fmt.Sprintf("%s (%s)", group.Letter, group.Label)
		}
		fmt.Fprintf(stdout, "%s: %s\n", label, strings.Join(group.Lines, " OR "))
	}
	if summary.Hidden > 0 {
		fmt.Fprintf(stdout, "+%d more\n", summary.Hidden)
	}
	if state.EstimatedUsers != nil {
		fmt.Fprintf(stdout, "estimated users: %d\n", *state.EstimatedUsers)
	}
	if state.IsNextDisabled {
		fmt.Fprintln(stdout, "next: disabled")
	} else {
		fmt.Fprintln(stdout, "next: enabled")
	}
}
