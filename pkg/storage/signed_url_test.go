package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("v1", "timetable-v1.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	version, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "v1", version)
	require.Equal(t, "timetable-v1.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("v1", "timetable-v1.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	version, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "v1", version)
	require.Equal(t, "timetable-v1.csv", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("v1", "timetable-v1.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"x", false)
	require.Error(t, err)

	other := NewSignedURLSigner("different", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}

func TestLocalStorageSaveOpenCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("timetable-v1.csv", []byte("Class,Day\n"))
	require.NoError(t, err)
	require.Equal(t, "timetable-v1.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	deleted, err := store.CleanupOlderThan(-time.Second)
	require.NoError(t, err)
	require.Contains(t, deleted, "timetable-v1.csv")

	_, err = store.Open(name)
	require.Error(t, err)
}
