package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/lifecycle"
	"github.com/Rrens/trip-planner/internal/planner"
	flag "github.com/spf13/pflag"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"register": registerCmd,
	"login":    loginCmd,
	"logout":   logoutCmd,
	"whoami":   whoamiCmd,
	"plan":     planCmd,
	"history":  historyCmd,
	"open":     openCmd,
	"delete":   deleteCmd,
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// password falls back to TRIPPICK_PASSWORD so it stays out of shell history
func password(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("TRIPPICK_PASSWORD")
}

func registerCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	email := fs.String("email", "", "account email")
	pass := fs.String("password", "", "account password (or TRIPPICK_PASSWORD)")
	name := fs.String("name", "", "full name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.accounts.Register(ctx, domain.UserCreate{
		Email:    *email,
		Password: password(*pass),
		FullName: *name,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s. Sign in with `trippick login`.\n", *email)
	return nil
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	pass := fs.String("password", "", "account password (or TRIPPICK_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profile, err := a.accounts.SignIn(ctx, *email, password(*pass))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(profile))
	return nil
}

func logoutCmd(ctx context.Context, a *app, args []string) error {
	if err := a.accounts.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func whoamiCmd(ctx context.Context, a *app, args []string) error {
	profile, ok, err := a.accounts.Profile(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintln(a.out, displayName(profile))
	return nil
}

func planCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("plan")
	from := fs.String("from", "", "origin city")
	to := fs.String("to", "", "destination")
	days := fs.Int("days", 0, "trip length in days")
	budget := fs.String("budget", string(domain.BudgetStandard), "economy, standard or luxury")
	with := fs.String("with", string(domain.TravelSolo), "solo, couple or group")
	email := fs.String("email", "", "mail the itinerary to this address")
	save := fs.Bool("save", false, "save the itinerary")
	approve := fs.Bool("approve", false, "save and approve the itinerary")
	raw := fs.Bool("json", false, "print the raw itinerary payload")
	pdfPath := fs.String("pdf", "", "also write the itinerary to this PDF file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prefs := domain.Preferences{
		Destination: *to,
		Budget:      domain.Budget(*budget),
		TravelWith:  domain.TravelWith(*with),
	}
	if *from != "" {
		prefs.Origin = from
	}
	if fs.Changed("days") {
		prefs.Days = days
	}

	var opts []planner.CallOption
	if *email != "" {
		opts = append(opts, planner.WithEmail(*email))
	}

	ctrl := lifecycle.New(a.client, lifecycle.WithObserver(a.transitions))

	it, err := ctrl.Generate(ctx, prefs, opts...)
	if err != nil {
		return err
	}
	if err := a.printItinerary(it, *raw); err != nil {
		return err
	}

	if *save || *approve {
		if it, err = ctrl.Save(ctx, opts...); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved as #%d\n", *it.ID)
	}
	if *approve {
		if it, err = ctrl.Approve(ctx); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Approved #%d\n", *it.ID)
	}
	return a.writePDF(*pdfPath, it)
}

func historyCmd(ctx context.Context, a *app, args []string) error {
	entries, err := a.client.FetchHistory(ctx)
	if err != nil {
		return err
	}
	return a.printHistory(entries)
}

func openCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("open")
	approve := fs.Bool("approve", false, "approve the itinerary")
	raw := fs.Bool("json", false, "print the raw itinerary payload")
	pdfPath := fs.String("pdf", "", "also write the itinerary to this PDF file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := itineraryID(fs)
	if err != nil {
		return err
	}

	entries, err := a.client.FetchHistory(ctx)
	if err != nil {
		return err
	}
	var entry *domain.ItinerarySummary
	for i := range entries {
		if entries[i].ID == id {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return fmt.Errorf("itinerary #%d is not in your history", id)
	}

	ctrl := lifecycle.New(a.client, lifecycle.WithObserver(a.transitions))
	it, err := ctrl.Open(*entry)
	if err != nil {
		return err
	}
	if err := a.printItinerary(it, *raw); err != nil {
		return err
	}

	if *approve {
		if it, err = ctrl.Approve(ctx); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Approved #%d\n", id)
	}
	return a.writePDF(*pdfPath, it)
}

func deleteCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := itineraryID(fs)
	if err != nil {
		return err
	}

	if err := a.client.DeleteItinerary(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted #%d\n", id)
	return nil
}

func itineraryID(fs *flag.FlagSet) (int64, error) {
	if fs.NArg() != 1 {
		return 0, errors.New("expected exactly one itinerary id")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid itinerary id %q", fs.Arg(0))
	}
	return id, nil
}
