// internal/util/id.go
// ULID (Universally Unique Lexicographically Sortable Identifier) helper
// used wherever this module needs a short, time-ordered correlation token
// rather than a full UUID — currently pkg/authtoken's "jti" claim, so a
// minted viewer token can be matched against access logs by ID alone.
//
// New/MustNew share one process-global monotonic entropy source (math/rand
// wrapped by ulid.Monotonic, seeded from crypto/rand) so two IDs minted
// within the same millisecond still sort correctly, without a syscall per
// call.
package util

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

var tokenEntropy *ulid.MonotonicEntropy

func init() {
	var seed int64
	_ = readSeed(rand.Reader, &seed)
	tokenEntropy = ulid.Monotonic(mrand.New(mrand.NewSource(seed)), 0)
}

// New mints a ULID string in canonical Crockford base-32.
func New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), tokenEntropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNew is New, panicking on the rare entropy-read failure. Callers that
// mint a correlation ID inline (e.g. pkg/authtoken.Issuer.Mint) use this so
// an entropy error surfaces immediately instead of silently issuing a token
// with no jti.
func MustNew() string {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

// readSeed reads a crypto-random seed value from r into v.
func readSeed(r io.Reader, v interface{}) error {
	return binary.Read(r, binary.BigEndian, v)
}
