// Пакет authtest — RSA-ключи и валидатор для тестов с Keycloak JWT.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/snapfeed/internal/auth"
)

// TestIssuer — issuer токенов, выпускаемых TestKeys.
const TestIssuer = "https://keycloak.test/realms/snapfeed"

const testKeyID = "test-key-sf"

// TestKeys — RSA-ключ и валидатор для тестов, принимающих Keycloak JWT.
type TestKeys struct {
	key       *rsa.PrivateKey
	Validator *auth.TokenValidator
}

// NewTestKeys генерирует RSA-ключ и валидатор, доверяющий этому ключу.
func NewTestKeys(t *testing.T, logger *slog.Logger) *TestKeys {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	jwks := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	data, _ := json.Marshal(jwks)

	kf, err := keyfunc.NewJWKSetJSON(data)
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}

	return &TestKeys{key: key, Validator: auth.NewTokenValidatorWithKeyfunc(kf, TestIssuer, logger)}
}

// Token выпускает подписанный токен для sub с указанным сроком действия.
func (k *TestKeys) Token(t *testing.T, sub, email, name string, ttl time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":                sub,
		"email":              email,
		"name":               name,
		"preferred_username": sub,
		"iss":                TestIssuer,
		"exp":                jwt.NewNumericDate(time.Now().Add(ttl)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(k.key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
