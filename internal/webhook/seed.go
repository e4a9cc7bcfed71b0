// ABOUTME: Random seed generation and webhook URL construction
// ABOUTME: Seeds are base64url encoded so they sit in a URL without escaping

package webhook

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// seedBytes is the amount of randomness per seed; 32 bytes encode to 43
// base64url characters.
const seedBytes = 32

// NewSeed returns a fresh random seed drawn from crypto/rand.
func NewSeed() (string, error) {
	b := make([]byte, seedBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// URL returns the inbound webhook URL for seed, e.g.
// https://chat.example.com/plugins/com.zentavr.pingdom/api/webhook?seed=...
func URL(baseURL, pluginID, seed string) string {
	base := strings.TrimRight(baseURL, "/")
	q := url.Values{}
	q.Set("seed", seed)
	return fmt.Sprintf("%s/plugins/%s/api/webhook?%s", base, url.PathEscape(pluginID), q.Encode())
}
