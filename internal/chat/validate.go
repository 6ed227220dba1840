package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// MaxBodyRunes is the maximum message body length, counted in runes.
const MaxBodyRunes = 500

// provisionalPrefix keeps client-assigned identifiers distinct from
// the store's identifier space.
const provisionalPrefix = "local-"

// ValidateBody trims the body and rejects empty or oversized messages.
// Returns the trimmed body on success.
func ValidateBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxBodyRunes {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// NewProvisionalID returns a client-assigned message identifier.
func NewProvisionalID() string {
	return provisionalPrefix + shortid.MustGenerate()
}

// IsProvisionalID reports whether an identifier belongs to the
// client-assigned space.
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, provisionalPrefix)
}

// NewClientToken returns an idempotency token for a send. ULIDs sort
// by time, matching the store's identifier ordering.
func NewClientToken() string {
	return ulid.Make().String()
}
