// Package ssoexport drives the credential resolution pipeline: resolve the
// named profile, load its cached SSO token, check the token's expiry, then
// exchange it for temporary role credentials and print them as export
// statements. A missing, malformed, or expired token ends the run
// successfully with a diagnostic; the user has to log in, the tool has not
// failed.
package ssoexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ssoexport/pkg/appconfig"
	"ssoexport/pkg/rolecreds"
	"ssoexport/pkg/ssoprofile"
	"ssoexport/pkg/tokencache"
)

// LoginHintTemplate tells the user how to obtain a fresh token when the
// cache is not usable.
const LoginHintTemplate = "Run 'aws sso login --profile %s' to refresh credentials."

// Indirections over the AWS client constructors so tests can substitute
// mock clients without touching the network.
var (
	newSSOClient = func(ctx context.Context, region string) (rolecreds.RoleCredentialsAPI, error) {
		return rolecreds.NewClient(ctx, region)
	}
	newVerifyClient = func(ctx context.Context, creds *rolecreds.Credentials, region string) (rolecreds.CallerIdentityAPI, error) {
		return rolecreds.NewVerifyClient(ctx, creds, region)
	}
)

func loginHint(profileName string) {
	slog.Info(fmt.Sprintf(LoginHintTemplate, profileName))
}

// CLI runs the whole pipeline and returns the process exit code. Exit code 0
// covers both emitted credentials and the recoverable not-ready cache
// states; anything else is a hard failure.
func CLI(args []string) int {
	var app appconfig.AppConfig

	// PARSE COMMAND LINE ARGS
	if err := app.Parse(args); err != nil {
		// Stdout is reserved for export statements; diagnostics go to stderr.
		fmt.Fprintf(os.Stderr, "Error parsing command line arguments: %v\n", err)
		return 1
	}

	// VALIDATE OPTIONS AND LOAD SETTINGS
	if err := app.ValidateOptions(); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating options: %v\n", err)
		return 1
	}

	ctx := context.Background()

	// RESOLVE THE SSO PROFILE
	slog.Debug("Resolving SSO profile", "profile", app.ProfileName)
	profile, err := ssoprofile.Resolve(app.ProfileName)
	if err != nil {
		slog.Error("Unable to resolve SSO profile", "error", err)
		return 1
	}
	slog.Debug("Found SSO profile", "profile", profile.ProfileName, "start_url", profile.SsoStartURL)

	// LOAD THE CACHED SSO TOKEN
	token, status := tokencache.Load(profile)
	switch status {
	case tokencache.StatusAbsent:
		slog.Info("No cached SSO token found for profile", "profile", app.ProfileName)
		loginHint(app.ProfileName)
		return 0
	case tokencache.StatusMalformed:
		// Detail already logged by the cache loader.
		loginHint(app.ProfileName)
		return 0
	}
	defer token.Scrub()
	slog.Debug("Loaded cached SSO token")

	// CHECK TOKEN EXPIRY
	expiresAt, err := token.Expiry()
	if err != nil {
		slog.Error("Cached SSO token has an unparseable expiry", "error", err)
		loginHint(app.ProfileName)
		return 0
	}

	encoded := expiresAt.Format(time.RFC3339)
	if tokencache.Expired(expiresAt, time.Now()) {
		slog.Error("Cached SSO token is expired", "expired_at", encoded)
		loginHint(app.ProfileName)
		return 0
	}
	slog.Debug("Cached SSO token is still valid", "expires_at", encoded)

	// EXCHANGE THE TOKEN FOR ROLE CREDENTIALS
	client, err := newSSOClient(ctx, token.Region)
	if err != nil {
		slog.Error("Unable to build SSO client", "error", err)
		return 1
	}

	creds, err := rolecreds.Fetch(ctx, client, profile, token)
	if err != nil {
		slog.Error("Unable to fetch SSO credentials using cached SSO token", "error", err)
		return 1
	}
	defer creds.Scrub()

	// OPTIONALLY VERIFY THE CREDENTIALS BEFORE PRINTING
	if app.Settings.Verify {
		verifier, err := newVerifyClient(ctx, creds, profile.Region)
		if err != nil {
			slog.Error("Unable to build STS client", "error", err)
			return 1
		}
		if err := rolecreds.Verify(ctx, verifier); err != nil {
			slog.Error("Fetched credentials failed verification", "error", err)
			return 1
		}
	}

	// EMIT THE EXPORT STATEMENTS
	slog.Info("Obtained SSO credentials, printing to standard output")
	for _, line := range rolecreds.Format(creds, expiresAt) {
		fmt.Println(line)
	}

	return 0
}
