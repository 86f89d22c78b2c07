package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	mailtm "github.com/mailtm/client-go"
)

var errNoSession = errors.New("no session: run register or login first")

// sessionFile is the on-disk session. Exactly one of Account and Sealed is
// set; Sealed is used when a passphrase is configured.
type sessionFile struct {
	Account *mailtm.ExportedAccount `yaml:"account,omitempty"`
	Sealed  *mailtm.SealedAccount   `yaml:"sealed,omitempty"`
}

func saveSession(path, passphrase string, data *mailtm.ExportedAccount) error {
	var file sessionFile
	if passphrase != "" {
		sealed, err := data.Seal(passphrase)
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
		file.Sealed = sealed
	} else {
		file.Account = data
	}

	out, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func loadSession(path, passphrase string) (*mailtm.ExportedAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var file sessionFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}

	switch {
	case file.Sealed != nil:
		if passphrase == "" {
			return nil, fmt.Errorf("session %s is sealed: set MAILTM_PASSPHRASE", path)
		}
		return file.Sealed.Open(passphrase)
	case file.Account != nil:
		if err := file.Account.Validate(); err != nil {
			return nil, err
		}
		return file.Account, nil
	default:
		return nil, errNoSession
	}
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
