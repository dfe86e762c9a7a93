package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cartera-ar/cartera/internal/database"
	testhelpers "github.com/cartera-ar/cartera/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, SizeBytes: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func archiveEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = content
	}
	return entries
}

func TestCreateAndUploadBackup(t *testing.T) {
	ledger := testhelpers.NewTestDB(t, "ledger")
	cache := testhelpers.NewTestDB(t, "cache")
	_, err := ledger.Conn().Exec(`INSERT INTO current_prices (ticker, precio_ars, usd_rate, updated_at) VALUES ('AAPL', '100', '1000', 0)`)
	require.NoError(t, err)

	store := newMemoryStore()
	svc := NewBackupService(store, []*database.DB{ledger, cache}, t.TempDir(), "nightly", zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC) }

	key, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nightly/cartera-backup-2025-05-01-030000.tar.gz", key)

	entries := archiveEntries(t, store.objects[key])
	assert.Contains(t, entries, "ledger.db")
	assert.Contains(t, entries, "cache.db")
	require.Contains(t, entries, metadataFile)

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(entries[metadataFile], &meta))
	require.Len(t, meta.Databases, 2)
	assert.Equal(t, "ledger", meta.Databases[0].Name)
	assert.True(t, strings.HasPrefix(meta.Databases[0].Checksum, "sha256:"))
}

func TestRotateOldBackups_KeepsNewestThree(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	for _, d := range []int{1, 2, 40, 50, 60} {
		ts := now.AddDate(0, 0, -d).Format(timestampLayout)
		store.objects["p/cartera-backup-"+ts+".tar.gz"] = []byte("x")
	}
	store.objects["p/unrelated.txt"] = []byte("x")

	svc := NewBackupService(store, nil, t.TempDir(), "p", zerolog.Nop())
	svc.now = func() time.Time { return now }

	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.True(t, backups[0].Timestamp.After(backups[1].Timestamp))
	assert.Equal(t, int64(24), backups[0].AgeHours)
}

func TestRotateOldBackups_ZeroRetentionKeepsAll(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	for d := 1; d <= 6; d++ {
		store.objects["cartera-backup-"+now.AddDate(0, 0, -d*30).Format(timestampLayout)+".tar.gz"] = nil
	}

	svc := NewBackupService(store, nil, t.TempDir(), "", zerolog.Nop())
	svc.now = func() time.Time { return now }

	deleted, err := svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, store.objects, 6)
}
