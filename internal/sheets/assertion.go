package sheets

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"time"
)

// assertionLifetime is the exp-iat window of every assertion. The token
// endpoint rejects assertions outside a small clock-skew tolerance, so iat is
// taken at signing time, never cached.
const assertionLifetime = time.Hour

type assertionHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type assertionClaims struct {
	Iss   string `json:"iss"`
	Scope string `json:"scope"`
	Aud   string `json:"aud"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

// buildAssertion normalizes the credential's key, builds the RS256 JWT
// header/claims for the read-only spreadsheet scope, and signs them.
func buildAssertion(cred Credential, scope, audience string, now time.Time) (string, error) {
	normalizedKey, err := NormalizePrivateKey(cred.PrivateKey)
	if err != nil {
		return "", err
	}
	privateKey, err := parseRSAPrivateKey(normalizedKey)
	if err != nil {
		return "", &SigningError{Err: err}
	}

	issuedAt := now.UTC()
	claims := assertionClaims{
		Iss:   cred.ClientEmail,
		Scope: scope,
		Aud:   audience,
		Iat:   issuedAt.Unix(),
		Exp:   issuedAt.Add(assertionLifetime).Unix(),
	}
	return signJWTAssertion(claims, privateKey)
}

func signJWTAssertion(claims assertionClaims, privateKey *rsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", &SigningError{Err: errors.New("rsa private key is required")}
	}
	headerJSON, err := json.Marshal(assertionHeader{Alg: "RS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encodedHeader := base64.RawURLEncoding.EncodeToString(headerJSON)
	encodedClaims := base64.RawURLEncoding.EncodeToString(claimsJSON)
	signingInput := encodedHeader + "." + encodedClaims

	// The signature covers exactly the two dot-joined segments as raw bytes.
	hash := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

func parseRSAPrivateKey(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid PEM private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
		return rsaKey, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, errors.New("unsupported private key format")
}
