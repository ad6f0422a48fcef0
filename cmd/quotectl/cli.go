package main

import (
	"context"
	"io"
	"time"

	"github.com/jsamuelsen/quotebook/internal/adapters/broker"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
)

// BoardAPI is the quotebook HTTP API as seen by the commands.
type BoardAPI interface {
	Status(ctx context.Context) (*dto.StatusResponse, error)
	Search(ctx context.Context, term string) (*dto.ViewsResponse, error)
	Views(ctx context.Context) (*dto.ViewsResponse, error)
	Favorites(ctx context.Context) (*dto.FavoritesViewResponse, error)
	Toggle(ctx context.Context, text, author string) (*dto.ViewsResponse, error)
	Remove(ctx context.Context, text, author string) (*dto.ViewsResponse, error)
	Clear(ctx context.Context) (*dto.ViewsResponse, error)
}

// EventSource streams favorites change events.
type EventSource interface {
	Start(ctx context.Context, handle func(broker.Envelope)) error
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	API    BoardAPI
	Events EventSource
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL      string        `name:"url" env:"QUOTEBOOK_URL" default:"http://localhost:8080" help:"Base URL of the quotebook service"`
	Timeout  time.Duration `default:"10s" help:"Per-request timeout"`
	LogLevel string        `name:"log-level" default:"warn" enum:"trace,debug,info,warn,error" help:"Client log level"`

	Status    StatusCmd    `cmd:"" help:"Show quote cache state and favorites count"`
	Search    SearchCmd    `cmd:"" help:"Search quotes by text or author"`
	Views     ViewsCmd     `cmd:"" help:"Print the current search and favorites views"`
	Favorites FavoritesCmd `cmd:"" help:"List favorite quotes"`
	Toggle    ToggleCmd    `cmd:"" help:"Mark or unmark a search result as favorite"`
	Remove    RemoveCmd    `cmd:"" help:"Remove a quote from favorites"`
	Clear     ClearCmd     `cmd:"" help:"Remove all favorites"`
	Events    EventsCmd    `cmd:"" help:"Follow favorites change events from NATS"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Term string `arg:"" optional:"" help:"Search term; empty lists every quote"`
}

// ViewsCmd is the "views" subcommand.
type ViewsCmd struct {
	JSON bool `help:"Print raw JSON"`
}

// FavoritesCmd is the "favorites" subcommand.
type FavoritesCmd struct{}

// ToggleCmd is the "toggle" subcommand.
type ToggleCmd struct {
	Text   string `arg:"" help:"Quote text"`
	Author string `arg:"" optional:"" help:"Quote author"`
}

// RemoveCmd is the "remove" subcommand.
type RemoveCmd struct {
	Text   string `arg:"" help:"Quote text"`
	Author string `arg:"" optional:"" help:"Quote author"`
}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Force bool `help:"Confirm clearing every favorite"`
}

// EventsCmd is the "events" subcommand.
type EventsCmd struct {
	NATS    string `name:"nats" env:"QUOTEBOOK_NATS_URL" default:"nats://127.0.0.1:4222" help:"NATS server URL"`
	Subject string `default:"quotebook.favorites" help:"Event subject prefix"`
}
