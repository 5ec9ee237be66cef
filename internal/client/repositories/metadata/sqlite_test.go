package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/strongholdapp/docsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return db
}

func TestSetGetDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Get(ctx, KeyDeviceID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Set(ctx, KeyDeviceID, []byte("dev-1")))
	v, err := r.Get(ctx, KeyDeviceID)
	require.NoError(t, err)
	assert.Equal(t, []byte("dev-1"), v)

	// overwrite
	require.NoError(t, r.Set(ctx, KeyDeviceID, []byte("dev-2")))
	v, err = r.Get(ctx, KeyDeviceID)
	require.NoError(t, err)
	assert.Equal(t, []byte("dev-2"), v)

	require.NoError(t, r.Delete(ctx, KeyDeviceID))
	_, err = r.Get(ctx, KeyDeviceID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTimeRoundTrip(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	// never set -> nil, no error
	got, err := r.GetTime(ctx, KeyLastFullSync)
	require.NoError(t, err)
	assert.Nil(t, got)

	ts := time.Date(2026, 3, 1, 8, 30, 0, 123456789, time.UTC)
	require.NoError(t, r.SetTime(ctx, KeyLastFullSync, ts))

	got, err = r.GetTime(ctx, KeyLastFullSync)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(ts))
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte("1")))
	require.NoError(t, r.Set(ctx, "b", []byte("2")))
	require.NoError(t, r.Clear(ctx))

	_, err := r.Get(ctx, "a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
