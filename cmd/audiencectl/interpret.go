package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-audience/components/audience/queries"
)

type interpretCmd struct {
	Type     string `default:"performed" help:"performed or didnt (aliases such as \"didn't\" are accepted)."`
	Operator string `default:"gte" help:"eq, gte, gt, lte, lt or a spelled-out alias."`
	N        string `name:"n" default:"1" help:"Count threshold."`
	Event    string `arg:"" help:"Event name."`
	When     string `help:"Optional time window: during_last, after, before or between."`
	Days     string `help:"Day count of the time window."`
	Locale   string `default:"en" help:"Phrasebook locale."`
}

func (cmd *interpretCmd) Run(ctx context.Context) error {
	result, err := queries.NewInterpretQuery().Query(ctx, queries.InterpretInput{
		Type:     cmd.Type,
		Operator: cmd.Operator,
		N:        cmd.N,
		Event:    cmd.Event,
		When:     cmd.When,
		Days:     cmd.Days,
		Locale:   cmd.Locale,
	})
	if err != nil {
		return err
	}
	if !result.Complete {
		return fmt.Errorf("audiencectl: condition is incomplete (count %q is not an integer)", cmd.N)
	}
	if result.Window != "" {
		fmt.Fprintf(stdout, "%s %s\n", result.Text, result.Window)
		return nil
	}
	fmt.Fprintln(stdout, result.Text)
	return nil
}
