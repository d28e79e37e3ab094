package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

var stdout io.Writer = os.Stdout

type cli struct {
	globals

	Interpret interpretCmd `cmd:"" help:"Render a single condition as a sentence."`
	Check     checkCmd     `cmd:"" help:"Evaluate a condition file: warnings, base condition, summary and estimate."`
	Catalog   catalogCmd   `cmd:"" help:"Print or validate the event catalog."`
	Serve     serveCmd     `cmd:"" help:"Serve the builder REST API."`
}

type globals struct {
	Config    string `type:"path" help:"Optional YAML config file."`
	LogLevel  string `default:"info" enum:"debug,info,warn,error" help:"Log level."`
	LogFormat string `default:"console" enum:"console,json" help:"Log output format."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Description("Audience condition builder utility."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&c.globals)
	ctx.FatalIfErrorf(err)
}

func (g *globals) logger(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(g.LogLevel)
	if err != nil || g.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	w := out
	if g.LogFormat != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
