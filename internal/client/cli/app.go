package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/config"
	"github.com/homehubdev/homehub/internal/client/guard"
	"github.com/homehubdev/homehub/internal/client/services"
	"github.com/homehubdev/homehub/internal/client/session"
	"github.com/homehubdev/homehub/internal/client/store"
	"github.com/homehubdev/homehub/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config   *config.Config
	auth     services.AuthService
	profile  *services.OTPFlow
	sessions *session.Manager
	intents  *guard.IntentStore
	profiles *guard.ProfileChecker
	log      logging.Logger
	reader   *bufio.Reader

	// location is the path of the view currently rendered.
	location string
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := store.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "initializing session store", "error", err)
		return nil, err
	}

	tokens := store.NewSQLiteTokenStore(db)
	apiClient := api.NewHTTPClient(c.ServerBaseURL, tokens, log,
		api.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		api.WithRefreshSkew(c.RefreshSkew),
	)
	sessions := session.NewManager(apiClient, tokens, log)

	return &App{
		config:   c,
		auth:     services.NewAuthService(apiClient, sessions, log),
		profile:  services.NewOTPFlow(apiClient, sessions, log),
		sessions: sessions,
		intents:  guard.NewIntentStore(),
		profiles: guard.NewProfileChecker(apiClient, log),
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		location: viewHome,
	}, nil
}

// Run restores the persisted session and blocks in the REPL until the user
// exits.
func (a *App) Run(ctx context.Context) {
	defer a.auth.Close(ctx)
	defer a.sessions.Dispose()

	a.auth.Bootstrap(ctx)

	printlnFn("Welcome to HomeHub CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Snapshot().State == session.StateAuthenticated
}

// status builds the prompt suffix, e.g. "(ada @ /dashboard)".
func (a *App) status() string {
	snap := a.sessions.Snapshot()
	s := ""
	if snap.User != nil {
		s = snap.User.Username + " @ "
	}
	s += a.location
	return fmt.Sprintf("(%s)", s)
}

// sessionView projects the session snapshot into the slice the guards need.
func sessionView(snap session.Snapshot) guard.SessionView {
	return guard.SessionView{
		Booting:       snap.State == session.StateBooting,
		Authenticated: snap.State == session.StateAuthenticated,
		EmailVerified: snap.User != nil && snap.User.IsEmailVerified,
	}
}
