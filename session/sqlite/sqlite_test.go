package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/internal/testutil"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "loanmesh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	rec := testutil.NewRecordBuilder("s-1").
		Stage(core.StageSalesNegotiation).
		Customer("CUST001", "Rahul Sharma").
		Amount(300000).
		User("I need 3 lakh").
		Build()

	require.NoError(t, s.Create(ctx, rec))
	err := s.Create(ctx, rec)
	require.ErrorIs(t, err, core.ErrRecordExists)

	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, core.StageSalesNegotiation, got.Stage)
	assert.Equal(t, "CUST001", got.Customer.ID)
	assert.InDelta(t, 300000, got.Loan.RequestedAmount, 0.001)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "I need 3 lakh", got.Messages[0].Content)

	got.Stage = core.StageVerification
	got.Verification.OTPSent = true
	got.UpdatedAt = time.Now()
	require.NoError(t, s.Put(ctx, got))

	again, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, core.StageVerification, again.Stage)
	assert.True(t, again.Verification.OTPSent)

	require.NoError(t, s.Delete(ctx, "s-1"))
	_, err = s.Get(ctx, "s-1")
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "s-1"), core.ErrRecordNotFound)
}

func TestStore_PutUnknown(t *testing.T) {
	s := openStore(t)
	err := s.Put(context.Background(), core.NewRecord("missing", time.Now()))
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "loanmesh.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, core.NewRecord("s-2", time.Now())))
	require.NoError(t, s.Artifacts().Save("s-2", "sanction-1.txt", []byte("letter")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.Get(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, core.StageEntry, rec.Stage)

	data, err := s.Artifacts().Get("s-2", "sanction-1.txt")
	require.NoError(t, err)
	assert.Equal(t, "letter", string(data))
}

func TestArtifactStore(t *testing.T) {
	s := openStore(t)
	a := s.Artifacts()

	require.NoError(t, a.Save("s-1", "b.txt", []byte("two")))
	require.NoError(t, a.Save("s-1", "a.txt", []byte("one")))
	require.NoError(t, a.Save("s-1", "a.txt", []byte("uno")))

	ids, err := a.List("s-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, ids)

	data, err := a.Get("s-1", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "uno", string(data))

	_, err = a.Get("s-1", "missing")
	assert.ErrorIs(t, err, artifact.ErrNotFound)

	require.NoError(t, a.Delete("s-1", "b.txt"))
	assert.ErrorIs(t, a.Delete("s-1", "b.txt"), artifact.ErrNotFound)

	ids, err = a.List("other")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_DeleteRemovesArtifacts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Create(ctx, core.NewRecord("s-3", time.Now())))
	require.NoError(t, s.Artifacts().Save("s-3", "slip.pdf", []byte("%PDF")))
	require.NoError(t, s.Delete(ctx, "s-3"))

	ids, err := s.Artifacts().List("s-3")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Create(context.Background(), core.NewRecord("m-1", time.Now())))
}
