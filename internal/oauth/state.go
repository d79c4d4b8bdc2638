package oauth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	StateCookie     = "gamehub_oauth_state"
	defaultStateTTL = 10 * time.Minute
)

var ErrStateMismatch = errors.New("oauth state mismatch")

// StateSigner issues the anti-forgery state of the redirect flow. The
// state is a short-lived signed token echoed in a cookie and the query.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string) (*StateSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	return &StateSigner{secret: []byte(secret), ttl: defaultStateTTL, now: time.Now}, nil
}

// TTL is how long an issued state stays valid.
func (s *StateSigner) TTL() time.Duration {
	return s.ttl
}

func (s *StateSigner) Issue() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks that the state returned by the provider matches the
// cookie and is an unexpired token signed by this server.
func (s *StateSigner) Verify(cookieValue, queryValue string) error {
	if cookieValue == "" || cookieValue != queryValue {
		return ErrStateMismatch
	}

	_, err := jwt.ParseWithClaims(queryValue, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	return err
}
