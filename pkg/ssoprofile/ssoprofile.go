// Package ssoprofile resolves a named SSO profile from the shared AWS
// configuration files. It reads ~/.aws/config and ~/.aws/credentials (or
// their AWS_CONFIG_FILE / AWS_SHARED_CREDENTIALS_FILE overrides) and
// validates that the profile carries every attribute needed for the SSO
// credential exchange.
package ssoprofile

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/ini.v1"
)

// SsoProfile is a fully validated SSO profile. All six fields are non-empty;
// a profile missing any attribute never makes it out of Resolve.
type SsoProfile struct {
	ProfileName  string
	Region       string
	SsoAccountID string
	SsoRegion    string
	SsoRoleName  string
	SsoStartURL  string
}

// requiredAttributes in the order they are reported when missing.
var requiredAttributes = []string{
	"region",
	"sso_account_id",
	"sso_region",
	"sso_role_name",
	"sso_start_url",
}

func configFilePath() string {
	if path := os.Getenv("AWS_CONFIG_FILE"); path != "" {
		return path
	}
	return fmt.Sprintf("%s/.aws/config", os.Getenv("HOME"))
}

func credentialsFilePath() string {
	if path := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); path != "" {
		return path
	}
	return fmt.Sprintf("%s/.aws/credentials", os.Getenv("HOME"))
}

// lookupSection finds the profile's section in the merged configuration.
// The config file spells sections as "profile <name>" while the credentials
// file uses the bare name; both forms are accepted.
func lookupSection(cfg *ini.File, profileName string) (*ini.Section, error) {
	if section, err := cfg.GetSection(fmt.Sprintf("profile %s", profileName)); err == nil {
		return section, nil
	}
	if section, err := cfg.GetSection(profileName); err == nil {
		return section, nil
	}
	return nil, fmt.Errorf("profile '%s' not found", profileName)
}

// Resolve looks up the named profile and projects its five required SSO
// attributes into an SsoProfile.
func Resolve(profileName string) (*SsoProfile, error) {
	configPath := configFilePath()
	credentialsPath := credentialsFilePath()

	slog.Debug("Loading AWS configuration files", "config", configPath, "credentials", credentialsPath)
	cfg, err := ini.LooseLoad(configPath, credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	section, err := lookupSection(cfg, profileName)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]string, len(requiredAttributes))
	for _, attr := range requiredAttributes {
		if !section.HasKey(attr) || section.Key(attr).String() == "" {
			return nil, fmt.Errorf("profile '%s' must have %s property set", profileName, attr)
		}
		attrs[attr] = section.Key(attr).String()
	}

	return &SsoProfile{
		ProfileName:  profileName,
		Region:       attrs["region"],
		SsoAccountID: attrs["sso_account_id"],
		SsoRegion:    attrs["sso_region"],
		SsoRoleName:  attrs["sso_role_name"],
		SsoStartURL:  attrs["sso_start_url"],
	}, nil
}
