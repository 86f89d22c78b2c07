package mailtm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mailtm/client-go/internal/crypto"
)

// ExportVersion is the current export format version.
const ExportVersion = 1

// ExportedAccount contains everything needed to resume an account in another
// process. WARNING: it holds the plaintext password; use Seal before storing
// it anywhere shared.
type ExportedAccount struct {
	// Version is the export format version. MUST be 1.
	Version int `json:"version" yaml:"version"`
	// Address is the account address. MUST contain exactly one @.
	Address string `json:"address" yaml:"address"`
	// Password is the account password. Non-empty.
	Password string `json:"password" yaml:"password"`
	// AccountID is the id returned by Login, if the client was logged in.
	AccountID string `json:"accountId,omitempty" yaml:"accountId,omitempty"`
	// Token is the bearer token at export time, if any.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// ExportedAt is the export timestamp. Informational only.
	ExportedAt time.Time `json:"exportedAt" yaml:"exportedAt"`
}

// SealedAccount is an ExportedAccount encrypted under a passphrase.
type SealedAccount struct {
	Version    int    `json:"version" yaml:"version"`
	Salt       string `json:"salt" yaml:"salt"`
	Nonce      string `json:"nonce" yaml:"nonce"`
	Ciphertext string `json:"ciphertext" yaml:"ciphertext"`
}

// Validate checks that the exported data can be imported. All failures are
// reported together in a *ValidationError matching ErrInvalidImportData.
func (e *ExportedAccount) Validate() error {
	var problems []string
	if e.Version != ExportVersion {
		problems = append(problems, fmt.Sprintf("unsupported version %d, expected %d", e.Version, ExportVersion))
	}
	switch {
	case e.Address == "":
		problems = append(problems, "address is required")
	case strings.Count(e.Address, "@") != 1:
		problems = append(problems, "address must contain exactly one @")
	}
	if e.Password == "" {
		problems = append(problems, "password is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Errors: problems}
	}
	return nil
}

// Seal encrypts the exported account under passphrase.
func (e *ExportedAccount) Seal(passphrase string) (*SealedAccount, error) {
	if passphrase == "" {
		return nil, invalidArgument("passphrase")
	}

	plaintext, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal account data: %w", err) //coverage:ignore
	}

	sealed, err := crypto.Seal(plaintext, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("seal account data: %w", err)
	}

	return &SealedAccount{
		Version:    ExportVersion,
		Salt:       sealed.Salt,
		Nonce:      sealed.Nonce,
		Ciphertext: sealed.Ciphertext,
	}, nil
}

// Open decrypts a sealed account and validates the result. A wrong
// passphrase returns ErrDecryptionFailed.
func (s *SealedAccount) Open(passphrase string) (*ExportedAccount, error) {
	if passphrase == "" {
		return nil, invalidArgument("passphrase")
	}
	if s.Version != ExportVersion {
		return nil, fmt.Errorf("%w: unsupported sealed version %d, expected %d", ErrInvalidImportData, s.Version, ExportVersion)
	}

	plaintext, err := crypto.Open(&crypto.Sealed{
		Salt:       s.Salt,
		Nonce:      s.Nonce,
		Ciphertext: s.Ciphertext,
	}, []byte(passphrase))
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, ErrDecryptionFailed
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}

	var data ExportedAccount
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// ExportAccount captures the credentials together with the client's current
// token and account id.
func (c *Client) ExportAccount(address, password string) (*ExportedAccount, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	exported := &ExportedAccount{
		Version:    ExportVersion,
		Address:    address,
		Password:   password,
		AccountID:  c.AccountID(),
		Token:      c.Token(),
		ExportedAt: time.Now().UTC(),
	}
	if err := exported.Validate(); err != nil {
		return nil, err
	}
	return exported, nil
}

// ImportAccount resumes an exported account on this client. The exported
// token is tried first; when it is missing or rejected the client logs in
// again with the exported credentials. The account is verified via Me.
func (c *Client) ImportAccount(ctx context.Context, data *ExportedAccount) (*Account, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: data is nil", ErrInvalidImportData)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	if data.Token != "" {
		c.mu.Lock()
		c.accountID = data.AccountID
		c.mu.Unlock()
		c.apiClient.SetToken(data.Token)

		account, err := c.Me(ctx)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		c.ClearToken()
	}

	if _, err := c.Login(ctx, data.Address, data.Password); err != nil {
		return nil, err
	}
	return c.Me(ctx)
}

// ExportAccountToFile exports an account to a JSON file with secure
// permissions (0600).
func (c *Client) ExportAccountToFile(address, password, filePath string) error {
	data, err := c.ExportAccount(address, password)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal account data: %w", err) //coverage:ignore
	}

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// ImportAccountFromFile imports an account from a JSON file written by
// ExportAccountToFile.
func (c *Client) ImportAccountFromFile(ctx context.Context, filePath string) (*Account, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var data ExportedAccount
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("parse account data: %w", err)
	}

	return c.ImportAccount(ctx, &data)
}
