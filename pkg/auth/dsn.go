// Package auth keeps database connection strings out of config files by
// storing them in the OS keychain under a short name.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "molweight"
	dsnFilePrefix  = "dsn_"
	fileMode       = 0600
)

var (
	// ErrDSNNotFound is returned when no DSN is saved under the name.
	ErrDSNNotFound = errors.New("dsn not found")

	validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// Store saves DSNs in the OS keychain, falling back to files in dir when the
// keychain is unavailable.
type Store struct {
	dir string
}

// NewStore returns a Store using dir for the file fallback.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func keyringUser(name string) string {
	return dsnFilePrefix + name
}

func (s *Store) filePath(name string) string {
	return filepath.Join(s.dir, dsnFilePrefix+name)
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid dsn name %q: use letters, digits, '.', '_' or '-'", name)
	}
	return nil
}

// Save stores dsn under name.
func (s *Store) Save(name, dsn string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if strings.TrimSpace(dsn) == "" {
		return errors.New("dsn is required")
	}

	if err := keyring.Set(keyringService, keyringUser(name), dsn); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return s.saveFile(name, dsn)
	}

	// Clean up file copy if it exists
	_ = os.Remove(s.filePath(name))
	return nil
}

// Get returns the DSN saved under name.
func (s *Store) Get(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	// Try keychain first
	dsn, err := keyring.Get(keyringService, keyringUser(name))
	if err == nil && dsn != "" {
		return dsn, nil
	}

	// Fall back to file
	dsn, err = s.getFile(name)
	if err != nil {
		return "", err
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser(name), dsn); migrateErr == nil {
		slog.Info("migrated dsn from file to OS keychain", "name", name)
		_ = os.Remove(s.filePath(name))
	}

	return dsn, nil
}

// Delete removes the DSN saved under name from both the keychain and the
// file fallback.
func (s *Store) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	found := false
	err := keyring.Delete(keyringService, keyringUser(name))
	switch {
	case err == nil:
		found = true
	case !errors.Is(err, keyring.ErrNotFound):
		slog.Warn("keychain unavailable", "error", err)
	}

	err = os.Remove(s.filePath(name))
	switch {
	case err == nil:
		found = true
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("removing dsn file: %w", err)
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrDSNNotFound, name)
	}
	return nil
}

func (s *Store) saveFile(name, dsn string) error {
	if s.dir == "" {
		return errors.New("dsn directory not set")
	}
	return os.WriteFile(s.filePath(name), []byte(dsn), fileMode)
}

func (s *Store) getFile(name string) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("%w: %s", ErrDSNNotFound, name)
	}
	b, err := os.ReadFile(s.filePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrDSNNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("reading dsn file %s: %w", s.filePath(name), err)
	}
	return strings.TrimSpace(string(b)), nil
}
