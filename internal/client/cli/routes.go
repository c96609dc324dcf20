package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/homehubdev/homehub/internal/client/guard"
	"github.com/homehubdev/homehub/internal/client/models"
)

// View paths, mirroring the dashboard's navigation map.
const (
	viewHome        = "/"
	viewDashboard   = "/dashboard"
	viewProfile     = "/profile"
	viewSettings    = "/settings"
	viewSignIn      = guard.DefaultSignInRoute
	viewRegister    = "/auth/register"
	viewVerifyEmail = guard.DefaultVerifyRoute
)

// redirectLimit bounds a single navigation. The guard chain is loop-free by
// construction; the limit catches a misconfigured route table.
const redirectLimit = 5

type view struct {
	path   string
	title  string
	policy guard.Policy
	render func(u *models.User) string
}

// viewTable maps the names accepted by "open <view>" to guarded views.
var viewTable = map[string]view{
	"home": {
		path:   viewHome,
		title:  "Home",
		render: func(*models.User) string { return "Public landing page." },
	},
	"dashboard": {
		path:  viewDashboard,
		title: "Dashboard",
		policy: guard.Policy{
			RequireAuth:     true,
			RequireVerified: true,
			RequireProfile:  true,
		},
		render: func(u *models.User) string {
			return fmt.Sprintf("Homes and devices for %s (level %d, %d points).",
				u.DisplayName, u.Level, u.Points)
		},
	},
	"profile": {
		path:   viewProfile,
		title:  "Profile",
		policy: guard.Policy{RequireAuth: true},
		render: func(u *models.User) string {
			return fmt.Sprintf("Username: %s\nDisplay name: %s\nEmail: %s",
				u.Username, u.DisplayName, u.Email)
		},
	},
	"settings": {
		path:   viewSettings,
		title:  "Settings",
		policy: guard.Policy{RequireAuth: true},
		render: func(*models.User) string { return "Account settings." },
	},
	"signin": {
		path:   viewSignIn,
		title:  "Sign in",
		policy: guard.Policy{RedirectIfAuthenticated: viewDashboard},
		render: func(*models.User) string { return "Use 'login' to authenticate." },
	},
	"register": {
		path:   viewRegister,
		title:  "Register",
		policy: guard.Policy{RedirectIfAuthenticated: viewDashboard},
		render: func(*models.User) string { return "Use 'register' to create an account." },
	},
	"verify-email": {
		path:   viewVerifyEmail,
		title:  "Verify your email",
		render: func(*models.User) string { return "Use 'verify' once you have the token, or 'resend'." },
	},
}

// viewByPath resolves a location (path plus optional query) back to a view.
func viewByPath(location string) (view, bool) {
	path := location
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, v := range viewTable {
		if v.path == path {
			return v, true
		}
	}
	return view{}, false
}

// Open navigates to the named view, running the guard chain and following
// redirects until a view renders.
func (a *App) Open(ctx context.Context, name string) error {
	v, ok := viewTable[name]
	if !ok {
		printlnFn("Unknown view:", name)
		printlnFn("Views: home, dashboard, profile, settings, signin, register, verify-email")
		return nil
	}
	return a.openLocation(ctx, v.path)
}

func (a *App) openLocation(ctx context.Context, location string) error {
	for hops := 0; hops < redirectLimit; hops++ {
		v, ok := viewByPath(location)
		if !ok {
			printlnFn("No such page:", location)
			return nil
		}

		snap := a.sessions.Snapshot()
		decision := guard.Evaluate(sessionView(snap), location, v.policy, a.intents)

		switch decision.Kind {
		case guard.Loading:
			printlnFn("Session is still loading, try again.")
			return nil

		case guard.Redirect:
			location = decision.Target
			continue

		case guard.Allow:
			if v.policy.RequireProfile && !a.profiles.Verify(ctx, snap.User) {
				location = viewProfile
				continue
			}
			a.location = v.path
			printlnFn("--", v.title, "--")
			printlnFn(v.render(snap.User))
			return nil
		}
	}

	a.log.Warn(ctx, "navigation exceeded redirect limit", "location", location)
	printlnFn("Could not open the page.")
	return nil
}
