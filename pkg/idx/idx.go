// Package idx generates the request identifiers the client stamps on every
// outbound API call and portal request. They are ULIDs, so request logs sort
// by the time the request was issued.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an ID stamped with the current UTC time. IDs created within
// the same millisecond stay strictly increasing.
func New() ID {
	mu.Lock()
	defer mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String())
}

// Parse validates s as a ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// FromHeader returns the ID carried in an X-Request-ID value, or a fresh one
// when the value is missing or not a ULID.
func FromHeader(v string) ID {
	if id, err := Parse(v); err == nil {
		return id
	}
	return New()
}

func (id ID) String() string { return string(id) }
