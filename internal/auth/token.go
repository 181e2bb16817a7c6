package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

// Token verification failures. Callers above the authenticator treat all of them as
// unauthenticated; they stay distinct for logging and metrics.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrWrongTokenKind   = errors.New("unexpected token kind")
)

// TokenManager handles issuing and validating HS256 JWT tokens with a single static secret.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager. The secret is copied and never mutated afterwards.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	tm := &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims is the verified content of a token.
type Claims struct {
	SubjectID int64
	Kind      domain.TokenKind
	Roles     []domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what login and registration hand back to clients.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type jwtClaims struct {
	Kind  domain.TokenKind `json:"typ"`
	Roles []string         `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Issue builds and signs a token of the given kind. Roles are embedded in access tokens only.
func (tm *TokenManager) Issue(subjectID int64, roles []domain.Role, kind domain.TokenKind) (string, time.Time, error) {
	ttl := tm.accessTTL
	switch kind {
	case domain.TokenKindAccess:
	case domain.TokenKindRefresh:
		ttl = tm.refreshTTL
		roles = nil
	default:
		return "", time.Time{}, ErrWrongTokenKind
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &jwtClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	for _, role := range roles {
		claims.Roles = append(claims.Roles, string(role))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// IssuePair mints an access token carrying roles and a refresh token for the subject.
func (tm *TokenManager) IssuePair(subjectID int64, roles []domain.Role) (TokenPair, error) {
	access, accessExp, err := tm.Issue(subjectID, roles, domain.TokenKindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := tm.Issue(subjectID, nil, domain.TokenKindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks structure, then signature, then expiry, and returns the embedded claims.
// The signature is checked over the raw segments before any payload decoding, so a tampered
// payload is always reported as ErrInvalidSignature.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformedToken
	}
	sig, err := jwt.NewParser().DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrMalformedToken
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, tm.secret); err != nil {
		return nil, ErrInvalidSignature
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &jwtClaims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	raw, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	subjectID, err := strconv.ParseInt(raw.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return nil, ErrMalformedToken
	}
	if raw.Kind != domain.TokenKindAccess && raw.Kind != domain.TokenKindRefresh {
		return nil, ErrMalformedToken
	}

	claims := &Claims{
		SubjectID: subjectID,
		Kind:      raw.Kind,
		ExpiresAt: raw.ExpiresAt.Time,
	}
	if raw.IssuedAt != nil {
		claims.IssuedAt = raw.IssuedAt.Time
	}
	for _, name := range raw.Roles {
		if role, ok := domain.ParseRole(name); ok {
			claims.Roles = append(claims.Roles, role)
		}
	}
	return claims, nil
}

// VerifyAccess verifies the token and requires it to be an access token.
func (tm *TokenManager) VerifyAccess(tokenStr string) (*Claims, error) {
	claims, err := tm.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != domain.TokenKindAccess {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
