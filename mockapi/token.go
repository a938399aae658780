package mockapi

import (
	"encoding/base64"
	"strings"
)

// TokenPrefix marks a demo token. The rest of the token is the standard
// base64 (padded) encoding of the lower-cased email.
const TokenPrefix = "mock:"

func EncodeToken(email string) string {
	return TokenPrefix + base64.StdEncoding.EncodeToString([]byte(strings.ToLower(email)))
}

// DecodeToken returns the email carried by a demo token. ok is false for
// anything that is not a prefixed, decodable, non-empty demo token.
func DecodeToken(token string) (email string, ok bool) {
	payload, found := strings.CutPrefix(token, TokenPrefix)
	if !found {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// IsDemoToken reports whether the token has the demo prefix. It does not
// check the payload; see DecodeToken.
func IsDemoToken(token string) bool {
	return strings.HasPrefix(token, TokenPrefix)
}
