// Package cli provides the interactive HomeHub command-line client.
//
// It wires configuration, the local session store, the REST gateway, the
// session state machine, and an interactive REPL whose views are gated by
// the same guard chain the web dashboard uses. Typical flow: restore the
// persisted session, show the prompt, and execute user commands.
//
// Key features:
//   - Login / Register / Logout against the HomeHub API
//   - Guarded views: open dashboard, profile, settings, ...
//   - Email verification, password reset and change
//   - Profile edits with OTP confirmation
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, Open, and runREPL for details.
package cli
