package sharetoken

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/ids"
)

var ErrNotALink = errors.New("token is not a signed share link")

// Link is a freshly minted share link.
type Link struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer mints signed share links for single documents and registers them
// so the Validator accepts them until they expire.
type Issuer struct {
	key      []byte
	ttl      time.Duration
	baseURL  string
	registry Registrar
	now      func() time.Time
}

func NewIssuer(key []byte, ttl time.Duration, baseURL string, registry Registrar, now func() time.Time) (*Issuer, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("link ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{key: key, ttl: ttl, baseURL: strings.TrimRight(baseURL, "/"), registry: registry, now: now}, nil
}

// Issue signs a link for documentID and registers it.
func (i *Issuer) Issue(ctx context.Context, documentID string) (Link, error) {
	if documentID == "" {
		return Link{}, fmt.Errorf("document id is required")
	}
	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   documentID,
		ID:        ids.New(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Link{}, fmt.Errorf("sign share link: %w", err)
	}
	if err := i.registry.Register(ctx, signed, exp); err != nil {
		return Link{}, fmt.Errorf("register share link: %w", err)
	}
	return Link{Token: signed, URL: i.baseURL + "/r/" + signed, ExpiresAt: exp}, nil
}

// DocumentID verifies the link signature and returns the shared document.
// Expiry is left to the Validator so that registry and link agree.
func (i *Issuer) DocumentID(token string) (string, error) {
	claims, err := i.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// LinkID verifies the link signature and returns its jti, which is safe to
// log in place of the token.
func (i *Issuer) LinkID(token string) (string, error) {
	claims, err := i.parse(token)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

func (i *Issuer) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotALink, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrNotALink
	}
	return claims, nil
}
