package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Open(ctx context.Context, name string) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	ResetRequest(ctx context.Context) error
	ResetConfirm(ctx context.Context) error
	Passwd(ctx context.Context) error
	Profile(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the HomeHub CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             — show available commands
//	  - register         — create an account
//	  - login            — authenticate
//	  - open <view>      — navigate (guards may redirect to sign-in)
//	  - reset-request    — request a password reset email
//	  - reset-confirm    — finish a password reset with a token
//	  - exit | quit      — leave the program
//
//	Logged in:
//	  - help             — show available commands
//	  - open <view>      — navigate the guarded views
//	  - me               — refresh and show the current user
//	  - verify           — submit an email verification token
//	  - resend           — resend the verification email
//	  - passwd           — change the password
//	  - profile          — edit the profile (may ask for an OTP code)
//	  - logout           — log out
//	  - exit | quit      — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("hub %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: open <view>, me, verify, resend, passwd, profile, logout, exit")
			} else {
				printlnFn("Available commands: register, login, open <view>, reset-request, reset-confirm, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "open", "o":
			if len(args) == 0 {
				printlnFn("Usage: open <view>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "verify":
			_ = a.Verify(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "reset-request":
			_ = a.ResetRequest(ctx)

		case "reset-confirm":
			_ = a.ResetConfirm(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
