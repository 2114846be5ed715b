package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var errBadCookie = errors.New("malformed or mis-signed session cookie")

// SignToken produces the cookie value for a session token: "token.signature".
func SignToken(token, secret string) string {
	return token + "." + sign(token, secret)
}

// VerifyCookie checks the signature and returns the embedded session token.
func VerifyCookie(value, secret string) (string, error) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return "", errBadCookie
	}
	token, signature := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(signature), []byte(sign(token, secret))) {
		return "", errBadCookie
	}
	return token, nil
}

func sign(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
