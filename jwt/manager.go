package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the algorithm used to sign session credentials.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Ed25519 keys.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256 over a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

const (
	// TypeAccess is the typ claim carried by access credentials.
	TypeAccess = "access"
	// TypeRefresh is the typ claim carried by refresh credentials.
	TypeRefresh = "refresh"
)

var (
	// ErrTokenType is returned when a credential of one kind is presented as the other.
	ErrTokenType = errors.New("token type mismatch")
	// ErrMissingClaims is returned when a required session claim is empty.
	ErrMissingClaims = errors.New("token missing required claims")
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte

	// Now overrides the wall clock for signing and expiry checks.
	Now func() time.Time
}

// Manager signs and verifies access and refresh credentials.
type Manager struct {
	config Config
	now    func() time.Time
}

// AccessClaims is the payload of an access credential.
type AccessClaims struct {
	UID      string            `json:"uid"`
	SID      string            `json:"sid"`
	Type     string            `json:"typ"`
	Metadata map[string]string `json:"md,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh credential.
type RefreshClaims struct {
	UID     string `json:"uid"`
	SID     string `json:"sid"`
	Family  string `json:"fam"`
	Version uint32 `json:"ver"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready codec.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Issuer == "" {
		return nil, errors.New("issuer required")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("ed25519 requires private key")
		}
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, now: now}, nil
}

// AccessTTL reports the configured access credential lifetime.
func (j *Manager) AccessTTL() time.Duration { return j.config.AccessTTL }

// RefreshTTL reports the configured refresh credential lifetime.
func (j *Manager) RefreshTTL() time.Duration { return j.config.RefreshTTL }

// IssueAccess signs an access credential for the session and returns it
// together with its expiry.
func (j *Manager) IssueAccess(uid, sid string, metadata map[string]string) (string, time.Time, error) {
	if uid == "" || sid == "" {
		return "", time.Time{}, ErrMissingClaims
	}
	claims := AccessClaims{
		UID:              uid,
		SID:              sid,
		Type:             TypeAccess,
		Metadata:         metadata,
		RegisteredClaims: j.registered(j.config.AccessTTL),
	}
	token, err := j.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssueRefresh signs a refresh credential for one member of a token family.
// Each call yields a distinct string, even for identical inputs.
func (j *Manager) IssueRefresh(uid, sid, family string, version uint32) (string, time.Time, error) {
	if uid == "" || sid == "" || family == "" {
		return "", time.Time{}, ErrMissingClaims
	}
	claims := RefreshClaims{
		UID:              uid,
		SID:              sid,
		Family:           family,
		Version:          version,
		Type:             TypeRefresh,
		RegisteredClaims: j.registered(j.config.RefreshTTL),
	}
	token, err := j.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// ParseAccess verifies an access credential.
func (j *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrTokenType
	}
	if claims.UID == "" || claims.SID == "" {
		return nil, ErrMissingClaims
	}
	if err := j.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh credential.
func (j *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh {
		return nil, ErrTokenType
	}
	if claims.UID == "" || claims.SID == "" || claims.Family == "" {
		return nil, ErrMissingClaims
	}
	if err := j.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

func (j *Manager) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := j.now()
	rc := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    j.config.Issuer,
	}
	if j.config.Audience != "" {
		rc.Audience = jwt.ClaimStrings{j.config.Audience}
	}
	return rc
}

func (j *Manager) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(j.getMethod(), claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	signKey, err := j.getSignKey()
	if err != nil {
		return "", err
	}

	return token.SignedString(signKey)
}

func (j *Manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.getMethod().Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(j.config.Issuer),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.getMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}

		if len(j.config.VerifyKeys) > 0 {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			key, ok := j.config.VerifyKeys[kid]
			if !ok {
				return nil, errors.New("unknown kid")
			}
			return j.keyBytesToVerifyKey(key)
		}

		if j.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != j.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}

		return j.getVerifyKey()
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func (j *Manager) checkIssuedAt(iat *jwt.NumericDate) error {
	if iat == nil || j.config.MaxFutureIAT <= 0 {
		return nil
	}
	if iat.Time.After(j.now().Add(j.config.MaxFutureIAT)) {
		return errors.New("token iat too far in the future")
	}
	return nil
}

func (j *Manager) getMethod() jwt.SigningMethod {
	switch j.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (j *Manager) getSignKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(j.config.PrivateKey)
	}
}

func (j *Manager) getVerifyKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		if len(j.config.PublicKey) == 0 {
			priv, err := parseEdPrivateKey(j.config.PrivateKey)
			if err != nil {
				return nil, err
			}
			return priv.Public(), nil
		}
		return parseEdPublicKey(j.config.PublicKey)
	}
}

func (j *Manager) keyBytesToVerifyKey(key []byte) (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPublicKey(key)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
