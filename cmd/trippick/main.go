// Command trippick is the terminal client of the trip planner backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/credstore"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/gateway"
	"github.com/Rrens/trip-planner/internal/logging"
	"github.com/Rrens/trip-planner/internal/planner"
	"github.com/Rrens/trip-planner/internal/security"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

const usage = `usage: trippick [--verbose] [--api URL] <command> [flags]

commands:
  register   create an account
  login      sign in and store credentials
  logout     sign out and forget credentials
  whoami     show the signed in account
  plan       generate an itinerary, optionally save and approve it
  history    list saved itineraries
  open       show a saved itinerary, optionally approve it
  delete     remove a saved itinerary
`

// app bundles the collaborators every command needs
type app struct {
	out      io.Writer
	baseURL  string
	accounts *planner.Accounts
	client   *planner.Client
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("trippick", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	verbose := global.BoolP("verbose", "v", false, "log requests and transitions")
	apiBase := global.String("api", "", "backend base URL")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "trippick: %v\n", err)
		return 1
	}
	if *apiBase != "" {
		cfg.Client.BaseURL = *apiBase
	}

	cfg.Logging.Format = "console"
	cfg.Logging.Level = "warn"
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	logFile, err := logging.Setup(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "trippick: %v\n", err)
		return 1
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Client)
	if err != nil {
		fmt.Fprintf(stderr, "trippick: %v\n", err)
		return 1
	}
	defer store.Close()

	gw := gateway.New(cfg.Client.BaseURL, store,
		gateway.WithTimeout(cfg.Client.Timeout),
		gateway.WithLogger(log.Logger),
	)
	a := &app{
		out:      stdout,
		baseURL:  cfg.Client.BaseURL,
		accounts: planner.NewAccounts(gw, store),
		client:   planner.NewClient(gw),
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "trippick: unknown command %q\n\n", name)
		global.Usage()
		return 2
	}

	if err := cmd(ctx, a, rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		report(stderr, err)
		return 1
	}
	return 0
}

func openStore(ctx context.Context, cfg config.ClientConfig) (*credstore.SQLiteStore, error) {
	var encryptor *security.Encryptor
	if cfg.CredentialsKey != "" {
		var err error
		encryptor, err = security.NewEncryptorFromBase64(cfg.CredentialsKey)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials key: %w", err)
		}
	}
	return credstore.OpenSQLite(ctx, cfg.CredentialsPath, encryptor)
}

// report prints err with a hint on what the user can do about it
func report(w io.Writer, err error) {
	fmt.Fprintf(w, "trippick: %v\n", err)
	switch {
	case domain.NeedsReauth(err):
		fmt.Fprintln(w, "hint: sign in again with `trippick login`")
	case domain.IsRetryable(err):
		fmt.Fprintln(w, "hint: the backend may be unavailable, try again shortly")
	case domain.IsLocalFailure(err):
		fmt.Fprintln(w, "hint: check the credentials file (TRIPPICK_CREDENTIALS_PATH) and its key")
	}
}
