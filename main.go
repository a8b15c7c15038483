package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/markis/smart-summary/internal/args"
	"github.com/markis/smart-summary/internal/client"
	"github.com/markis/smart-summary/internal/config"
	"github.com/markis/smart-summary/internal/controller"
	"github.com/markis/smart-summary/internal/logging"
	"github.com/markis/smart-summary/internal/render"
)

const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitCancelled = 130
)

// main function to parse arguments and stream the summary.
func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}

	a, err := args.ParseArgs(ctx, *cfg, args.Input{Args: os.Args[1:], Stdin: pipedStdin()})
	if errors.Is(err, args.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitUsage
	}

	logger := logging.New(os.Stderr, a.LogLevel, term.FromEnv().IsColorEnabled())
	c := client.New(a.BaseURL, client.WithTimeout(cfg.Timeout), client.WithLogger(logger))

	if a.Command == args.CommandHealth {
		health, err := c.Health(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitError
		}
		fmt.Printf("%s: %s\n", c.BaseURL(), health.Status)
		return exitOK
	}

	renderer, err := render.NewTerminalRenderer(os.Stdout, os.Stderr, render.Options{
		PlainText: a.UsePlainText,
		Wrap:      a.Wrap,
		Theme:     cfg.Render.Theme,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}

	ctrl := controller.New(c, controller.WithListener(renderer), controller.WithLogger(logger))
	outcome, err := ctrl.Run(ctx, client.SummaryRequest{Text: a.Text, MaxLength: a.MaxLength})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitUsage
	}
	if err := renderer.Err(); err != nil {
		logger.Error().Err(err).Msg("output failed")
	}

	switch outcome.Status {
	case controller.StatusCompleted:
		return exitOK
	case controller.StatusCancelled:
		return exitCancelled
	default:
		return exitError
	}
}

// pipedStdin returns stdin when input is being piped in.
func pipedStdin() io.Reader {
	if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		return os.Stdin
	}
	return nil
}
