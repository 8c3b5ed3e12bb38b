package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the application's secrets in the OS keychain.
const KeyringService = "jobhound"

// ErrNotConfigured is returned when no location holds a usable secret.
var ErrNotConfigured = errors.New("not configured")

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration, flags or environment.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over every other location.
	File string
	// KeyringAccount is looked up in the OS keychain under KeyringService.
	// It takes precedence over Value unless the keychain cannot be read.
	KeyringAccount string
}

// Load returns the resolved secret value from the provided source. Precedence is
// File, then the OS keyring, then Value. The returned secret is always trimmed.
// An error wrapping ErrNotConfigured is returned when no location holds a secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if account := strings.TrimSpace(src.KeyringAccount); account != "" {
		secret, err := keyring.Get(KeyringService, account)
		switch {
		case err == nil && strings.TrimSpace(secret) != "":
			return strings.TrimSpace(secret), nil
		case err != nil && !errors.Is(err, keyring.ErrNotFound):
			// An unusable keychain does not hide an inline value.
			if value := strings.TrimSpace(src.Value); value != "" {
				return value, nil
			}
			return "", fmt.Errorf("reading %s from keyring: %w", name, err)
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
	}

	return secret, nil
}

// Present reports whether src resolves to a secret. The value itself is discarded.
func Present(src Source) bool {
	_, err := Load(src)
	return err == nil
}

// SetKeyring stores value in the OS keychain under account.
func SetKeyring(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, strings.TrimSpace(value))
}

// DeleteKeyring removes account from the OS keychain. Missing entries are not an error.
func DeleteKeyring(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if err := keyring.Delete(KeyringService, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
