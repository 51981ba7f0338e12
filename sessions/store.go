package sessions

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Well known key paths.
var (
	KeyUserLocale = []string{"user", "locale"}
	KeyState      = []string{"state"}
)

var ErrEmptyKey = errors.New("empty session key")

// Store is a key-value store scoped by application id. It persists values that
// must survive a browser redirect, such as the login state and the last known
// user locale.
type Store interface {
	// Get returns the value stored under keyPath and whether it exists.
	Get(ctx context.Context, appID string, keyPath ...string) (string, bool, error)

	// Set stores value under keyPath, replacing any previous value.
	Set(ctx context.Context, appID string, value string, keyPath ...string) error

	// Delete removes keyPath. Deleting a missing key is not an error.
	Delete(ctx context.Context, appID string, keyPath ...string) error
}

func joinKey(keyPath []string) (string, error) {
	if len(keyPath) == 0 {
		return "", ErrEmptyKey
	}
	for _, part := range keyPath {
		if part == "" {
			return "", ErrEmptyKey
		}
	}
	return strings.Join(keyPath, "."), nil
}
