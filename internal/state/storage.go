// Package state persists conversation- and user-scoped state bags across
// turns. A BotState caches its bag in the turn context on first access and
// flushes every mutation made during the turn in a single storage write.
package state

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ErrPreconditionFailed is returned by storages that enforce ETags when a
// write carries a stale tag.
var ErrPreconditionFailed = errors.New("storage: etag precondition failed")

// AnyETag disables the ETag precondition for a write.
const AnyETag = "*"

// Item is one stored document.
type Item struct {
	Value json.RawMessage
	// ETag is the version tag of Value. An empty tag or AnyETag on write means
	// "no precondition".
	ETag string
}

// Storage is the key/value backend shared by all conversations.
//
// Read omits keys that do not exist. Write stores every change or none of
// them, and on success sets each item's ETag to the newly stored tag.
// Delete ignores missing keys.
type Storage interface {
	Read(ctx context.Context, keys []string) (map[string]Item, error)
	Write(ctx context.Context, changes map[string]*Item) error
	Delete(ctx context.Context, keys []string) error
}

// NewETag returns a fresh version tag.
func NewETag() string { return uuid.NewString() }

// CheckETag reports whether a write carrying want may replace a document
// currently stored with have. exists is false when nothing is stored.
func CheckETag(want, have string, exists bool) bool {
	if want == "" || want == AnyETag {
		return true
	}
	return exists && want == have
}
