package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates an unsigned token (alg: none) for tests that run
// with signature verification disabled. tid carries the tenant id.
func GenerateTestJWT(sub, tenantID string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s","aud":"ekaya-assist"`, sub)
	if tenantID != "" {
		payload += fmt.Sprintf(`,"tid":"%s"`, tenantID)
	}
	payload += "}"

	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString([]byte(payload)))
}

// GenerateTestJWTWithBearer returns the token with the "Bearer " prefix.
func GenerateTestJWTWithBearer(sub, tenantID string) string {
	return "Bearer " + GenerateTestJWT(sub, tenantID)
}
