package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"

	"github.com/nhle/diet-tracker/internal/model"
)

// Keys of the values kept in the keyring.
const (
	TokenKey  = "auth-token"
	UserIDKey = "user-id"
)

// ErrNotFound is returned when a credential has never been stored or was
// cleared.
var ErrNotFound = errors.New("credential not found")

// Store keeps the bearer token and the signed-in user's id in the system
// keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the platform keyring, falling back to an
// encrypted file under fileDir when no native backend is available.
func Open(cfg model.CredentialsConfig) (*Store, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "diettracker"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  expandHome(cfg.FileDir),
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an already opened keyring. Tests pass a
// keyring.NewArrayKeyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNotFound
	}

	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key string, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an
// error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Token returns the stored bearer token.
func (s *Store) Token() (string, error) {
	return s.Get(TokenKey)
}

// Session builds a session from the stored user id.
func (s *Store) Session() (model.Session, error) {
	id, err := s.Get(UserIDKey)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{UserID: model.ID(id)}, nil
}

// SaveLogin stores the token and user id returned by a successful login.
func (s *Store) SaveLogin(token string, userID model.ID) error {
	if err := s.Set(TokenKey, token); err != nil {
		return err
	}
	return s.Set(UserIDKey, userID.String())
}

// Clear forgets both the token and the user id.
func (s *Store) Clear() error {
	if err := s.Delete(TokenKey); err != nil {
		return err
	}
	return s.Delete(UserIDKey)
}

func expandHome(dir string) string {
	if !strings.HasPrefix(dir, "~") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}
