// Package tokencache reads the SSO access token that a prior
// 'aws sso login' left under ~/.aws/sso/cache. The cache file name is the
// lowercase hex SHA1 of the profile's start URL; that convention belongs to
// the AWS CLI and must be reproduced exactly for this tool to find the
// tokens it writes. This tool never writes or refreshes the cache.
package tokencache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ssoexport/pkg/ssoprofile"
)

// Status classifies the outcome of a cache lookup. Absent and Malformed are
// expected steady states before or after a login, not errors.
type Status int

const (
	StatusAbsent Status = iota
	StatusMalformed
	StatusValid
)

// CachedToken mirrors the AWS CLI's cached token JSON.
type CachedToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
	Region      string `json:"region"`
	StartURL    string `json:"startUrl"`
}

// Expiry parses the token's serialized expiry timestamp.
func (token *CachedToken) Expiry() (time.Time, error) {
	expiresAt, err := time.Parse(time.RFC3339, token.ExpiresAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse token expiry: %w", err)
	}
	return expiresAt, nil
}

// Scrub overwrites the token's secret material. Strings are immutable in Go,
// so this drops the references and lets the collector reclaim them; it is
// best effort, not a guarantee.
func (token *CachedToken) Scrub() {
	token.AccessToken = ""
	token.ExpiresAt = ""
	token.Region = ""
	token.StartURL = ""
}

// Expired reports whether a token expiring at expiresAt is unusable at now.
// A token expiring exactly now is expired; the boundary fails closed.
func Expired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}

func cacheDir() string {
	return fmt.Sprintf("%s/.aws/sso/cache", os.Getenv("HOME"))
}

// CachePath derives the cache file path for a start URL. Identical start
// URLs always map to the identical file.
func CachePath(startURL string) string {
	digest := sha1.Sum([]byte(startURL))
	return fmt.Sprintf("%s/%s.json", cacheDir(), hex.EncodeToString(digest[:]))
}

// Load reads and deserializes the cached token for the profile's start URL.
// A missing cache directory or file yields StatusAbsent; content that does
// not deserialize yields StatusMalformed with the detail logged. Neither is
// propagated as an error because the caller degrades gracefully either way.
func Load(profile *ssoprofile.SsoProfile) (*CachedToken, Status) {
	path := CachePath(profile.SsoStartURL)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Cache file for profile does not exist", "profile", profile.ProfileName, "path", path)
			return nil, StatusAbsent
		}
		slog.Error("Unable to read cached SSO token", "path", path, "error", err)
		return nil, StatusMalformed
	}

	var token CachedToken
	err = json.Unmarshal(raw, &token)

	// The raw buffer holds the access token; clear it before moving on.
	for i := range raw {
		raw[i] = 0
	}

	if err != nil {
		slog.Error("Unable to deserialize cached SSO token", "path", path, "error", err)
		return nil, StatusMalformed
	}

	return &token, StatusValid
}
