package guard

import (
	"context"
	"sync"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/logging"
)

// ProfileChecker reconciles the profile-completion requirement against the
// server. Locally cached state can be stale right after a completion action,
// so the canonical record is re-fetched once per user reference and the
// profile_completed flag is backed up by required-field inference.
//
// The result is memoized by user identity: once reconciled, the check does
// not re-trigger until the session manager replaces the user record. A
// failed fetch is memoized as "not verified" (fail closed) with no automatic
// retry; the next user replacement re-triggers the check.
type ProfileChecker struct {
	client api.Client
	log    logging.Logger

	mu      sync.Mutex
	checked *models.User
	ok      bool
}

func NewProfileChecker(client api.Client, log logging.Logger) *ProfileChecker {
	return &ProfileChecker{client: client, log: log}
}

// Verify reports whether the user's profile may be treated as complete.
func (c *ProfileChecker) Verify(ctx context.Context, user *models.User) bool {
	if user == nil {
		return false
	}

	c.mu.Lock()
	if c.checked == user {
		ok := c.ok
		c.mu.Unlock()
		return ok
	}
	c.mu.Unlock()

	ok := false
	fresh, err := c.client.CurrentUser(ctx)
	if err != nil {
		c.log.Warn(ctx, "profile reconciliation failed, denying access", "error", err)
	} else {
		ok = fresh.ProfileComplete()
	}

	c.mu.Lock()
	c.checked = user
	c.ok = ok
	c.mu.Unlock()
	return ok
}
