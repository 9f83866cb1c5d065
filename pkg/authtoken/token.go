// Package authtoken issues and verifies short-lived HMAC-SHA256 bearer
// tokens for internal/viewer's websocket endpoint. It deliberately stays
// away from advanced JWT conventions (kid, JWKS, asymmetric keys) — a
// single shared secret is enough to gate a live trace tail behind
// possession of an operator-distributed token.
package authtoken

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/xet7/tigerbeetle/internal/util"
)

var (
	ErrInvalid         = errors.New("authtoken: invalid token")
	ErrExpired         = errors.New("authtoken: token expired")
	ErrReplicaMismatch = errors.New("authtoken: replica claim mismatch")
)

// Issuer mints tokens scoped to one replica's trace stream.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// NewIssuer returns an Issuer with the given shared secret and token
// lifetime. A non-positive ttl defaults to 15 minutes.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: secret, ttl: ttl, clock: time.Now}
}

// Mint signs a token granting the bearer access to replica's trace stream.
func (s *Issuer) Mint(replica uint8) (string, error) {
	now := s.clock()
	claims := jwt.MapClaims{
		"iss":     "replicatracer",
		"jti":     util.MustNew(), // correlates a minted token with viewer access logs
		"replica": int64(replica),
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verifier validates tokens minted by an Issuer sharing the same secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given shared secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify parses tokenStr and returns the replica it grants access to.
func (v *Verifier) Verify(tokenStr string) (replica uint8, err error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalid
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalid
	}
	rep, ok := claims["replica"].(float64)
	if !ok || rep < 0 || rep > 255 {
		return 0, ErrInvalid
	}
	return uint8(rep), nil
}
