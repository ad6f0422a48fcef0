package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jsamuelsen/quotebook/internal/adapters/broker"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Run executes the status command. Status and favorites are fetched together.
func (c *StatusCmd) Run(deps *Dependencies) error {
	status, favorites, err := app.Parallel2(deps.Ctx,
		deps.API.Status,
		deps.API.Favorites,
	)
	if err != nil {
		return report(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "quotes:    %s (%d loaded)\n", status.State, status.Quotes)
	fmt.Fprintf(deps.Stdout, "favorites: %d\n", status.Favorites)

	printCards(deps.Stdout, favorites.Cards)

	return nil
}

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	views, err := deps.API.Search(deps.Ctx, c.Term)
	if err != nil {
		return report(deps, err)
	}

	if views.Search.Notice != "" {
		fmt.Fprintln(deps.Stdout, views.Search.Notice)
		return nil
	}

	printCards(deps.Stdout, views.Search.Cards)

	return nil
}

// Run executes the views command.
func (c *ViewsCmd) Run(deps *Dependencies) error {
	views, err := deps.API.Views(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(views)
	}

	printViews(deps.Stdout, views)

	return nil
}

// Run executes the favorites command.
func (c *FavoritesCmd) Run(deps *Dependencies) error {
	favorites, err := deps.API.Favorites(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}

	if !favorites.Visible {
		fmt.Fprintln(deps.Stdout, "No favorites yet. Use 'quotectl toggle' on a search result.")
		return nil
	}

	printCards(deps.Stdout, favorites.Cards)

	return nil
}

// Run executes the toggle command.
func (c *ToggleCmd) Run(deps *Dependencies) error {
	views, err := deps.API.Toggle(deps.Ctx, c.Text, c.Author)
	if err != nil {
		return report(deps, err)
	}

	printViews(deps.Stdout, views)

	return nil
}

// Run executes the remove command.
func (c *RemoveCmd) Run(deps *Dependencies) error {
	views, err := deps.API.Remove(deps.Ctx, c.Text, c.Author)
	if err != nil {
		return report(deps, err)
	}

	printViews(deps.Stdout, views)

	return nil
}

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintln(deps.Stderr, "Refusing to clear favorites without --force")
		return errors.New("clear requires --force")
	}

	if _, err := deps.API.Clear(deps.Ctx); err != nil {
		return report(deps, err)
	}

	fmt.Fprintln(deps.Stdout, "Favorites cleared.")

	return nil
}

// Run executes the events command. It blocks until interrupted.
func (c *EventsCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stderr, "Following %s.> (Ctrl-C to stop)\n", c.Subject)

	err := deps.Events.Start(deps.Ctx, func(env broker.Envelope) {
		fmt.Fprintf(deps.Stdout, "%s  %s\n", env.Type, string(env.Data))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return report(deps, err)
	}

	return nil
}

// report prints a user-facing message for err and returns it.
func report(deps *Dependencies, err error) error {
	fmt.Fprintf(deps.Stderr, "error: %s\n", errorMessage(err))
	return err
}

func errorMessage(err error) string {
	var notReady *domain.NotReadyError

	switch {
	case errors.As(err, &notReady):
		if notReady.State == domain.LoadStateFailed {
			return "quotes failed to load; restart the service to retry"
		}

		return "quotes are still loading, try again shortly"
	case domain.IsValidation(err):
		return err.Error()
	case domain.IsUnavailable(err):
		return "quotebook service is unavailable: " + err.Error()
	default:
		return err.Error()
	}
}

func printViews(w io.Writer, views *dto.ViewsResponse) {
	if views.Search.Visible {
		fmt.Fprintf(w, "Search %q:\n", views.Search.Term)

		if views.Search.Notice != "" {
			fmt.Fprintf(w, "  %s\n", views.Search.Notice)
		}

		printCards(w, views.Search.Cards)
	}

	if views.Favorites.Visible {
		fmt.Fprintln(w, "Favorites:")
		printCards(w, views.Favorites.Cards)
	}
}

func printCards(w io.Writer, cards []dto.CardResponse) {
	for _, c := range cards {
		mark := " "
		if c.Marked {
			mark = "*"
		}

		if c.Author == "" {
			fmt.Fprintf(w, "  [%s] %s\n", mark, c.Text)
			continue
		}

		fmt.Fprintf(w, "  [%s] %s (%s)\n", mark, c.Text, c.Author)
	}
}
