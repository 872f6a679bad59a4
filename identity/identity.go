package identity

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// CookieName carries the signed client id that scopes a browser's storage.
const CookieName = "blogfront_client"

// ClientClaims identifies one browser. The subject is the client id.
type ClientClaims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies client identity tokens.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewIssuer returns an Issuer using secret. An empty secret is replaced by
// a random one, so identities do not survive a restart.
func NewIssuer(secret string) *Issuer {
	key := []byte(secret)
	if len(key) == 0 {
		logrus.Warn("JWT_SECRET is not set. Using a random secret; browser identities will not survive a restart.")
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate secret: %v", err))
		}
	}
	return &Issuer{secret: key, lifetime: 365 * 24 * time.Hour}
}

// NewClientID returns a fresh, sortable client id.
func NewClientID() string {
	return ulid.Make().String()
}

// Issue signs a token for clientID.
func (i *Issuer) Issue(clientID string) (string, error) {
	now := time.Now()
	claims := ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Lifetime is how long an issued token stays valid.
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Parse verifies tokenString and returns the client id it carries.
func (i *Issuer) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}
