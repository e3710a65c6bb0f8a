package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zalando/go-keyring"
)

// LookupSecret returns the password or API token stored for user in the OS
// keyring. A missing entry is not an error: sources may be anonymous.
func LookupSecret(user string) string {
	if user == "" {
		return ""
	}
	secret, err := keyring.Get(KeyringService, user)
	if err != nil {
		slog.Debug(MsgPassFail,
			LogKeyComponent, CompConfig,
			LogKeyUser, user,
			LogKeyError, err)
		return ""
	}
	return secret
}

// StoreSecret saves the secret for user in the OS keyring.
func StoreSecret(user, secret string) error {
	if user == "" {
		return errors.New(ErrSecretUser)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New(ErrSecretEmpty)
	}
	if err := keyring.Set(KeyringService, user, secret); err != nil {
		return fmt.Errorf("%s: %w", ErrSecretStore, err)
	}
	return nil
}
