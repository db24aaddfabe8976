package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/model"
)

func newTestStore() *Store {
	return NewStore(keyring.NewArrayKeyring(nil))
}

func TestTokenMissing(t *testing.T) {
	s := newTestStore()

	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoginAndSession(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.SaveLogin("tok-123", model.ID("42")))

	token, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	sess, err := s.Session()
	require.NoError(t, err)
	assert.Equal(t, model.ID("42"), sess.UserID)
	assert.True(t, sess.Valid())
}

func TestClearRemovesEverything(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SaveLogin("tok", model.ID("7")))

	require.NoError(t, s.Clear())

	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Session()
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing twice is fine.
	assert.NoError(t, s.Clear())
}
