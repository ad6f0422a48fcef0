// Command quotectl drives a running quotebook service from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/jsamuelsen/quotebook/internal/adapters/broker"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = config.LoadDotEnv()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// API overrides the HTTP client built from --url. Set in tests.
	API BoardAPI

	// Events overrides the NATS subscriber built for the events command.
	Events EventSource
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("quotectl"),
		kong.Description("Search quotes and manage favorites on a quotebook service."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'quotectl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   cli.LogLevel,
		Format:  "pretty",
		Service: "quotectl",
	}, stderr)

	deps.API = m.API
	if deps.API == nil {
		api, err := NewHTTPAPI(cli.URL, cli.Timeout, logger)
		if err != nil {
			return err
		}

		deps.API = api
	}

	if kongCtx.Command() == "events" {
		deps.Events = m.Events
		if deps.Events == nil {
			sub, err := broker.NewSubscriber(logger, cli.Events.NATS, cli.Events.Subject)
			if err != nil {
				fmt.Fprintln(stderr, "Hint: set QUOTEBOOK_NATS_URL or pass --nats")
				return fmt.Errorf("failed to connect to broker: %w", err)
			}
			defer sub.Close()

			deps.Events = sub
		}
	}

	return kongCtx.Run(deps)
}
