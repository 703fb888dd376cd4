package dbconn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// ErrNoPassword is returned when a profile has no stored password.
var ErrNoPassword = errors.New("no stored password")

// Keyring keeps store passwords in the OS credential manager, one entry per
// connection profile under Service.
type Keyring struct {
	Service string
}

// Passwords is the keyring Open reads from.
var Passwords = Keyring{Service: "dashstudio"}

func checkProfile(profile string) error {
	if strings.TrimSpace(profile) == "" || strings.TrimSpace(profile) != profile {
		return fmt.Errorf("invalid keyring profile %q", profile)
	}
	return nil
}

// Save stores password for profile, replacing any previous entry.
func (k Keyring) Save(profile, password string) error {
	if err := checkProfile(profile); err != nil {
		return err
	}
	if password == "" {
		return errors.New("refusing to store an empty password")
	}
	return keyring.Set(k.Service, profile, password)
}

// Load returns the password stored for profile, or ErrNoPassword.
func (k Keyring) Load(profile string) (string, error) {
	if err := checkProfile(profile); err != nil {
		return "", err
	}
	pw, err := keyring.Get(k.Service, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("profile %s: %w", profile, ErrNoPassword)
	}
	return pw, err
}

// Delete removes the entry for profile. Deleting a missing entry returns
// ErrNoPassword.
func (k Keyring) Delete(profile string) error {
	if err := checkProfile(profile); err != nil {
		return err
	}
	err := keyring.Delete(k.Service, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("profile %s: %w", profile, ErrNoPassword)
	}
	return err
}

// fill sets cfg.Password from the keyring when it is empty and a profile is
// configured. A missing entry is not an error: servers that accept
// passwordless logins still work.
func (k Keyring) fill(cfg ConnectionConfig) (ConnectionConfig, error) {
	if cfg.Password != "" || cfg.KeyringProfile == "" {
		return cfg, nil
	}
	pw, err := k.Load(cfg.KeyringProfile)
	if errors.Is(err, ErrNoPassword) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("keyring lookup for %q: %w", cfg.KeyringProfile, err)
	}
	cfg.Password = pw
	return cfg, nil
}
