// Package rolecreds exchanges a cached SSO access token for temporary role
// credentials and formats them as shell export statements. The exchange is a
// single GetRoleCredentials call against the region the token was issued
// for; there are no retries, a transport or service error ends the run.
package rolecreds

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sso"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"ssoexport/pkg/ssoprofile"
	"ssoexport/pkg/tokencache"
)

// Credentials is a temporary access key / secret / session token triple
// returned by the identity service.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ExpiresAt       time.Time
}

// Scrub overwrites the secret fields once the credentials have been emitted.
// Best effort under a garbage collector.
func (creds *Credentials) Scrub() {
	creds.AccessKeyID = ""
	creds.SecretAccessKey = ""
	creds.SessionToken = ""
}

// RoleCredentialsAPI is the slice of the SSO client used by Fetch.
type RoleCredentialsAPI interface {
	GetRoleCredentials(ctx context.Context, params *sso.GetRoleCredentialsInput, optFns ...func(*sso.Options)) (*sso.GetRoleCredentialsOutput, error)
}

// CallerIdentityAPI is the slice of the STS client used by Verify.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// NewClient builds an SSO client scoped to the region the cached token was
// issued for. Retries are disabled; this tool is one-shot and interactive.
func NewClient(ctx context.Context, region string) (*sso.Client, error) {
	slog.Debug("Loading AWS config for SSO client", "region", region)
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return sso.NewFromConfig(cfg), nil
}

// Fetch exchanges the cached token for role credentials and normalizes the
// response. The caller must have already checked the token for freshness.
// Every field of the response is required; a missing one is an error naming
// it, never a default.
func Fetch(ctx context.Context, client RoleCredentialsAPI, profile *ssoprofile.SsoProfile, token *tokencache.CachedToken) (*Credentials, error) {
	slog.Debug("Fetching role credentials", "account_id", profile.SsoAccountID, "role_name", profile.SsoRoleName)
	out, err := client.GetRoleCredentials(ctx, &sso.GetRoleCredentialsInput{
		AccountId:   aws.String(profile.SsoAccountID),
		RoleName:    aws.String(profile.SsoRoleName),
		AccessToken: aws.String(token.AccessToken),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get role credentials: %w", err)
	}

	role := out.RoleCredentials
	if role == nil {
		return nil, fmt.Errorf("response did not contain any credentials")
	}
	if role.AccessKeyId == nil {
		return nil, fmt.Errorf("response did not contain an access key id")
	}
	if role.SecretAccessKey == nil {
		return nil, fmt.Errorf("response did not contain a secret access key")
	}
	if role.SessionToken == nil {
		return nil, fmt.Errorf("response did not contain a session token")
	}

	// Expiration arrives as integer nanoseconds since the epoch and has to
	// land in the same time.Time representation the rest of the pipeline
	// uses.
	if role.Expiration <= 0 {
		return nil, fmt.Errorf("unable to parse expiration date from role credentials: %d", role.Expiration)
	}

	return &Credentials{
		AccessKeyID:     aws.ToString(role.AccessKeyId),
		SecretAccessKey: aws.ToString(role.SecretAccessKey),
		SessionToken:    aws.ToString(role.SessionToken),
		ExpiresAt:       time.Unix(0, role.Expiration).UTC(),
	}, nil
}

// NewVerifyClient builds an STS client carrying the freshly fetched
// credentials, for the optional post-fetch verification call.
func NewVerifyClient(ctx context.Context, creds *Credentials, region string) (*sts.Client, error) {
	slog.Debug("Loading AWS config for STS client", "region", region)
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region),
		config.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			creds.SessionToken,
		)))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return sts.NewFromConfig(cfg), nil
}

// Verify confirms the fetched credentials are usable with one
// GetCallerIdentity call.
func Verify(ctx context.Context, client CallerIdentityAPI) error {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("failed to verify credentials: %w", err)
	}

	slog.Debug("Verified credentials", "arn", aws.ToString(out.Arn), "account", aws.ToString(out.Account))
	return nil
}

// Format renders the credentials as the fixed stdout contract: one comment
// line with the expiry, then the three export statements, in that order.
func Format(creds *Credentials, expiresAt time.Time) []string {
	return []string{
		fmt.Sprintf("# expires at %s", expiresAt.Format(time.RFC3339)),
		fmt.Sprintf("export AWS_ACCESS_KEY_ID=%s", creds.AccessKeyID),
		fmt.Sprintf("export AWS_SECRET_ACCESS_KEY=%s", creds.SecretAccessKey),
		fmt.Sprintf("export AWS_SESSION_TOKEN=%s", creds.SessionToken),
	}
}
