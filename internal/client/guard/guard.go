// Package guard decides whether a route may render for the current session
// state. The decision is a pure function of (session snapshot, location,
// policy); the only state on the side is the single-slot redirect intent and
// the memoized profile check. Guards never fail open: on any uncertainty the
// answer is a redirect, not access.
package guard

import (
	"net/url"
	"strings"
)

// Default routes, matching the application's navigation map.
const (
	DefaultSignInRoute   = "/auth/sign_in"
	DefaultVerifyRoute   = "/auth/verify_email_notice"
	DefaultFallbackRoute = "/"
)

// Policy configures one guarded route.
type Policy struct {
	// RequireAuth denies anonymous visitors, capturing the attempted
	// location as redirect intent.
	RequireAuth bool

	// RequireVerified additionally demands a verified email address.
	RequireVerified bool

	// RequireProfile additionally demands a completed profile, reconciled
	// against the server by a ProfileChecker.
	RequireProfile bool

	// RedirectIfAuthenticated sends authenticated users away from this
	// route (sign-in and register pages). A pending redirect intent takes
	// precedence over this static target.
	RedirectIfAuthenticated string

	// SignInRoute, VerifyRoute and FallbackRoute override the defaults.
	SignInRoute   string
	VerifyRoute   string
	FallbackRoute string
}

func (p Policy) signIn() string {
	if p.SignInRoute != "" {
		return p.SignInRoute
	}
	return DefaultSignInRoute
}

func (p Policy) verify() string {
	if p.VerifyRoute != "" {
		return p.VerifyRoute
	}
	return DefaultVerifyRoute
}

func (p Policy) fallback() string {
	if p.FallbackRoute != "" {
		return p.FallbackRoute
	}
	return DefaultFallbackRoute
}

// DecisionKind enumerates guard outcomes.
type DecisionKind int

const (
	// Allow renders the route.
	Allow DecisionKind = iota
	// Redirect navigates to Decision.Target instead.
	Redirect
	// Loading shows a neutral placeholder; the session is still booting
	// and redirecting now would flicker.
	Loading
)

type Decision struct {
	Kind   DecisionKind
	Target string
}

func allow() Decision             { return Decision{Kind: Allow} }
func redirect(to string) Decision { return Decision{Kind: Redirect, Target: to} }
func loading() Decision           { return Decision{Kind: Loading} }

// SessionView is the slice of session state the guard needs. Satisfied by
// session.Snapshot via the Evaluate adapter in this package's callers.
type SessionView struct {
	Booting       bool
	Authenticated bool
	EmailVerified bool
}

// Evaluate runs the guard chain top to bottom:
//
//  1. booting session        -> Loading
//  2. redirect-if-authed     -> Redirect (pending intent preferred)
//  3. require-auth, no user  -> capture intent, Redirect to sign-in
//     (already on sign-in    -> Redirect to fallback, avoiding a loop)
//  4. require-verified       -> Redirect to the verification notice
//  5. otherwise              -> Allow
//
// location is the attempted path plus query, e.g. "/homes/3?tab=members".
func Evaluate(view SessionView, location string, p Policy, intents *IntentStore) Decision {
	if view.Booting {
		return loading()
	}

	if view.Authenticated && p.RedirectIfAuthenticated != "" {
		if next := intents.Consume(); next != "" {
			return redirect(next)
		}
		return redirect(p.RedirectIfAuthenticated)
	}

	if p.RequireAuth && !view.Authenticated {
		if pathOnly(location) == p.signIn() {
			return redirect(p.fallback())
		}
		intents.Capture(location)
		return redirect(p.signIn() + "?next=" + url.QueryEscape(location))
	}

	if p.RequireVerified && !view.EmailVerified {
		return redirect(p.verify())
	}

	return allow()
}

func pathOnly(location string) string {
	if i := strings.IndexByte(location, '?'); i >= 0 {
		return location[:i]
	}
	return location
}
