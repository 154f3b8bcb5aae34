package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/mkuznecov/expensetrack/internal/client/api"
	"github.com/mkuznecov/expensetrack/internal/client/config"
	"github.com/mkuznecov/expensetrack/internal/client/services"
	"github.com/mkuznecov/expensetrack/internal/client/session"
	"github.com/mkuznecov/expensetrack/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires the session manager and services behind the REPL commands.
type App struct {
	config   *config.Config
	log      logging.Logger
	manager  *session.Manager
	expenses *services.ExpenseService
	db       *sql.DB
	reader   *bufio.Reader
}

// NewApp builds the full client: local session database, API adapter,
// services and the session manager, all explicitly constructed so tests
// can substitute any part.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewTextLogger(cfg.LogLevel)

	db, err := session.OpenDB(ctx, cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing session storage: %w", err)
	}
	store := session.NewSQLiteStore(db)

	baseURL, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.APIBaseURL, err)
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	apiClient := api.NewHTTPClient(*baseURL, httpClient, store, log)

	authService := services.NewAuthService(apiClient, store, log)
	expenseService := services.NewExpenseService(apiClient, log)
	manager := session.NewManager(store, authService, log)

	return &App{
		config:   cfg,
		log:      log,
		manager:  manager,
		expenses: expenseService,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores the session, announces expiry if the stored token turned out
// to be dead, and hands control to the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.manager.Subscribe(func(s session.Snapshot) {
		if s.SessionExpired {
			printlnFn("Session expired, please log in again.")
		}
	})

	a.manager.Bootstrap(ctx)

	if user := a.manager.User(); user != nil {
		printlnFn(fmt.Sprintf("Welcome back, %s!", user.Username))
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

// Close tears down the manager and the session database. Safe to call once
// the REPL has returned.
func (a *App) Close() {
	a.manager.Close()
	_ = a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.manager.State() == session.StateAuthenticated
}

func (a *App) status() string {
	if user := a.manager.User(); user != nil {
		return fmt.Sprintf("(%s)", user.Username)
	}
	return ""
}
