//go:build integration
// +build integration

package test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
)

func TestJWTIntegrationHardeningChecks(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	manager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: jwt.MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "gosession",
		Audience:      "api",
		Leeway:        30 * time.Second,
		KeyID:         "k1",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	access, _, err := manager.IssueAccess("u1", "s1", nil)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := manager.ParseAccess(access); err != nil {
		t.Fatalf("ParseAccess valid token failed: %v", err)
	}

	refresh, _, err := manager.IssueRefresh("u1", "s1", "f1", 1)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	if _, err := manager.ParseAccess(refresh); err == nil {
		t.Fatal("expected refresh credential to be rejected as access")
	}

	badClaims := jwt.AccessClaims{
		UID:  "u1",
		SID:  "s1",
		Type: jwt.TypeAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    "gosession",
			Audience:  gjwt.ClaimStrings{"api"},
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
		},
	}

	badToken := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, badClaims)
	badToken.Header["kid"] = "unknown"
	signedBad, err := badToken.SignedString(priv)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := manager.ParseAccess(signedBad); err == nil {
		t.Fatal("expected unknown kid token to fail")
	}
}
