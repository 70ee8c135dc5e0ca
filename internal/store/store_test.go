package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pensign/pensign/internal/signing"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSessionStore(db)
}

func testSession(token string) *signing.Session {
	return &signing.Session{
		Token:            token,
		OriginalFilename: "contract.pdf",
		DocumentB64:      "JVBERi0xLjQ=",
		Fields: []signing.Field{
			{ID: "sig-1", Kind: signing.FieldSignature, Page: 1, XRatio: 0.1, YRatio: 0.8, Width: 150, Height: 50},
			{ID: "date-1", Kind: signing.FieldDate, Page: 1, XRatio: 0.1, YRatio: 0.9, Width: 100, Height: 20},
		},
		Status:    signing.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("tok-1")))

	got, err := s.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "contract.pdf", got.OriginalFilename)
	assert.Equal(t, "JVBERi0xLjQ=", got.DocumentB64)
	assert.Equal(t, signing.StatusPending, got.Status)
	assert.Nil(t, got.SignedAt)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, signing.FieldSignature, got.Fields[0].Kind)
	assert.Equal(t, 0.8, got.Fields[0].YRatio)
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, signing.ErrSessionNotFound)
}

func TestCreateSessionDuplicateToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("tok-1")))
	assert.Error(t, s.CreateSession(ctx, testSession("tok-1")))
}

func TestMarkSigned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	signedAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.CreateSession(ctx, testSession("tok-1")))
	require.NoError(t, s.MarkSigned(ctx, "tok-1", "c2lnbmVk", "jordan@example.com", signedAt))

	got, err := s.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, signing.StatusSigned, got.Status)
	assert.Equal(t, "c2lnbmVk", got.SignedB64)
	assert.Equal(t, "jordan@example.com", got.SignerEmail)
	require.NotNil(t, got.SignedAt)
}

// The conditional update makes signed terminal: a second MarkSigned
// must fail and leave the first signed document in place.
func TestMarkSignedIsTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("tok-1")))
	require.NoError(t, s.MarkSigned(ctx, "tok-1", "Zmlyc3Q=", "", time.Now()))

	err := s.MarkSigned(ctx, "tok-1", "c2Vjb25k", "", time.Now())
	assert.ErrorIs(t, err, signing.ErrAlreadySigned)

	got, err := s.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Zmlyc3Q=", got.SignedB64)
}

func TestMarkSignedUnknownToken(t *testing.T) {
	s := newTestStore(t)

	err := s.MarkSigned(context.Background(), "missing", "eA==", "", time.Now())
	assert.ErrorIs(t, err, signing.ErrSessionNotFound)
}
