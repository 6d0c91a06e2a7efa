package recipients_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/recipients"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRegistry(t *testing.T) (*recipients.Registry, storage.Storage) {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r, err := recipients.NewRegistry(context.Background(), db, testLogger())
	require.NoError(t, err)
	return r, db
}

func TestNormalize(t *testing.T) {
	r := recipients.Normalize(model.Recipient{Handle: "+33600000000"})
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "+33600000000", r.DisplayName)
	assert.Equal(t, []model.Channel{model.ChannelPrimary}, r.Channels)

	r = recipients.Normalize(model.Recipient{Handle: "x", DisplayName: "Sam", Channels: []model.Channel{"fax", model.ChannelRisky}})
	assert.Equal(t, "Sam", r.DisplayName)
	assert.Equal(t, []model.Channel{model.ChannelRisky}, r.Channels)
}

func TestList_Immutable(t *testing.T) {
	l := recipients.NewList(nil)
	l1, added := l.Add(model.Recipient{Handle: "a", Active: true})
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, l1.Len())

	l2, toggled, err := l1.Toggle(added.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)
	assert.Len(t, l1.Active(), 1)
	assert.Empty(t, l2.Active())

	all := l1.All()
	all[0].Channels[0] = model.ChannelRisky
	got, _ := l1.Get(added.ID)
	assert.Equal(t, model.ChannelPrimary, got.Channels[0])
}

func TestList_Find(t *testing.T) {
	l, added := recipients.NewList(nil).Add(model.Recipient{Handle: "+100"})

	byID, ok := l.Find(added.ID)
	require.True(t, ok)
	assert.Equal(t, "+100", byID.Handle)

	byHandle, ok := l.Find("+100")
	require.True(t, ok)
	assert.Equal(t, added.ID, byHandle.ID)

	_, ok = l.Find("missing")
	assert.False(t, ok)
}

func TestList_EmergencySeedIdempotent(t *testing.T) {
	l, _ := recipients.NewList(nil).Add(model.Recipient{Handle: "17", DisplayName: "My police", Active: false})

	seeded, added := l.WithEmergencyServices()
	assert.Equal(t, 2, added)
	assert.Equal(t, 3, seeded.Len())

	again, added := seeded.WithEmergencyServices()
	assert.Zero(t, added)
	assert.Equal(t, 3, again.Len())

	existing, ok := again.Find("17")
	require.True(t, ok)
	assert.Equal(t, "My police", existing.DisplayName)
}

func TestRegistry_ConsentSeedsEmergencyNumbers(t *testing.T) {
	r, db := newTestRegistry(t)
	ctx := context.Background()

	assert.False(t, r.Consent())
	assert.Empty(t, r.All())

	require.NoError(t, r.SetConsent(ctx, true))
	assert.True(t, r.Consent())
	all := r.All()
	require.Len(t, all, 3)
	for _, rec := range all {
		assert.True(t, rec.IsEmergencyContact)
		assert.True(t, rec.Active)
		assert.Equal(t, model.ChannelPrimary, rec.PreferredChannel())
	}

	require.NoError(t, r.SetConsent(ctx, true))
	assert.Len(t, r.All(), 3)

	require.NoError(t, r.SetConsent(ctx, false))
	assert.False(t, r.Consent())
	assert.Len(t, r.All(), 3, "revoking consent keeps recipients")

	reloaded, err := recipients.NewRegistry(ctx, db, testLogger())
	require.NoError(t, err)
	assert.False(t, reloaded.Consent())
	assert.Len(t, reloaded.All(), 3)
}

func TestRegistry_CRUD(t *testing.T) {
	r, db := newTestRegistry(t)
	ctx := context.Background()

	sam, err := r.Add(ctx, model.Recipient{Handle: "+33611111111", DisplayName: "Sam", Channels: []model.Channel{model.ChannelRisky, model.ChannelPrimary}, Active: true})
	require.NoError(t, err)
	alex, err := r.Add(ctx, model.Recipient{Handle: "+33622222222", Active: true})
	require.NoError(t, err)
	assert.Len(t, r.Active(), 2)

	toggled, err := r.Toggle(ctx, alex.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)
	assert.Len(t, r.Active(), 1)

	sam.DisplayName = "Samira"
	require.NoError(t, r.Update(ctx, sam))

	require.NoError(t, r.Remove(ctx, alex.ID))
	assert.ErrorIs(t, r.Remove(ctx, alex.ID), recipients.ErrNotFound)
	_, err = r.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, recipients.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, model.Recipient{ID: "missing"}), recipients.ErrNotFound)

	reloaded, err := recipients.NewRegistry(ctx, db, testLogger())
	require.NoError(t, err)
	all := reloaded.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Samira", all[0].DisplayName)
	assert.Equal(t, model.ChannelRisky, all[0].PreferredChannel())
}
