package tokencache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssoexport/pkg/ssoprofile"
)

const startURL = "https://example.awsapps.com/start"

// SHA1 of startURL, per the AWS CLI cache naming convention.
const startURLDigest = "e8be5486177c5b5392bd9aa76563515b29358e6e"

func testProfile() *ssoprofile.SsoProfile {
	return &ssoprofile.SsoProfile{
		ProfileName:  "dev",
		Region:       "us-west-2",
		SsoAccountID: "123456789012",
		SsoRegion:    "us-east-1",
		SsoRoleName:  "AdministratorAccess",
		SsoStartURL:  startURL,
	}
}

func TestCachePath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	want := filepath.Join(tempDir, ".aws", "sso", "cache", startURLDigest+".json")
	assert.Equal(t, want, CachePath(startURL))

	// Deterministic: same input, same path.
	assert.Equal(t, CachePath(startURL), CachePath(startURL))

	// Different start URLs land in different files.
	assert.NotEqual(t, CachePath(startURL), CachePath("https://other.awsapps.com/start"))
}

func writeCacheFile(t *testing.T, content string) {
	t.Helper()

	path := CachePath(startURL)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStatus Status
		verify     func(t *testing.T, token *CachedToken)
	}{
		{
			name:       "Cache file absent",
			content:    "",
			wantStatus: StatusAbsent,
		},
		{
			name:       "Cache file malformed",
			content:    "{not json",
			wantStatus: StatusMalformed,
		},
		{
			name: "Cache file valid",
			content: `{
				"accessToken": "token-123",
				"expiresAt": "2030-01-02T03:04:05Z",
				"region": "us-east-1",
				"startUrl": "https://example.awsapps.com/start"
			}`,
			wantStatus: StatusValid,
			verify: func(t *testing.T, token *CachedToken) {
				assert.Equal(t, "token-123", token.AccessToken)
				assert.Equal(t, "2030-01-02T03:04:05Z", token.ExpiresAt)
				assert.Equal(t, "us-east-1", token.Region)
				assert.Equal(t, "https://example.awsapps.com/start", token.StartURL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())

			if tt.content != "" {
				writeCacheFile(t, tt.content)
			}

			token, status := Load(testProfile())
			assert.Equal(t, tt.wantStatus, status)

			if tt.wantStatus == StatusValid {
				require.NotNil(t, token)
				if tt.verify != nil {
					tt.verify(t, token)
				}
			} else {
				assert.Nil(t, token)
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	token := &CachedToken{ExpiresAt: "2030-01-02T03:04:05Z"}
	expiresAt, err := token.Expiry()
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), expiresAt.UTC())

	token = &CachedToken{ExpiresAt: "not-a-timestamp"}
	_, err = token.Expiry()
	assert.ErrorContains(t, err, "unable to parse token expiry")
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"Expiry in the past", now.Add(-time.Hour), true},
		{"Expiry exactly now", now, true},
		{"Expiry in the future", now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.expiresAt, now))
		})
	}
}

func TestScrub(t *testing.T) {
	token := &CachedToken{
		AccessToken: "token-123",
		ExpiresAt:   "2030-01-02T03:04:05Z",
		Region:      "us-east-1",
		StartURL:    startURL,
	}

	token.Scrub()

	assert.Empty(t, token.AccessToken)
	assert.Empty(t, token.ExpiresAt)
	assert.Empty(t, token.Region)
	assert.Empty(t, token.StartURL)
}
