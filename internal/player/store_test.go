package player

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/offwork-lock/internal/errutil"
	"github.com/xtding233/offwork-lock/internal/logging"
)

// memBackend records saves and can be told to fail.
type memBackend struct {
	mu       sync.Mutex
	data     map[string][]Entry
	loads    int
	saves    int
	failLoad error
	failSave error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]Entry)}
}

func (m *memBackend) Load(_ context.Context, key string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.failLoad != nil {
		return nil, m.failLoad
	}
	return append([]Entry(nil), m.data[key]...), nil
}

func (m *memBackend) Save(_ context.Context, key string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSave != nil {
		return m.failSave
	}
	m.data[key] = append([]Entry(nil), entries...)
	return nil
}

func newTestStore(b Backend) *Store {
	return NewStore(b, WithLogger(logging.Discard()))
}

func TestSanitizeContext(t *testing.T) {
	assert.Equal(t, "default", SanitizeContext(""))
	assert.Equal(t, "default", SanitizeContext("   "))
	assert.Equal(t, "My_World", SanitizeContext("My World"))
	assert.Equal(t, "play_example_com_25565", SanitizeContext("play.example.com:25565"))
	assert.Equal(t, "a-b_c", SanitizeContext(" a-b_c "))
	assert.Equal(t, "___etc_passwd", SanitizeContext("../etc/passwd"))
}

func TestStore_GetOrCreateDefaultsWithoutWriting(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(b)
	ctx := context.Background()

	rec, err := s.GetOrCreate(ctx, "world", alice)
	require.NoError(t, err)
	assert.Equal(t, Record{}, rec)
	assert.Equal(t, 0, b.saves)

	again, err := s.GetOrCreate(ctx, "world", alice)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
	assert.Equal(t, 1, b.loads, "context is loaded once")

	_, found, err := s.Find(ctx, "world", alice)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStore_FindDoesNotCreate(t *testing.T) {
	s := newTestStore(newMemBackend())
	_, found, err := s.Find(context.Background(), "world", alice)
	require.NoError(t, err)
	assert.False(t, found)

	snap, err := s.Snapshot(context.Background(), "world")
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestStore_UpdatePersistsWholeContext(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(b)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "world", alice, Record{Points: 10}))
	require.NoError(t, s.Update(ctx, "world", bob, Record{Points: 20, Unlocked: true}))
	require.NoError(t, s.Update(ctx, "world", alice, Record{Points: 11}))

	assert.Equal(t, []Entry{
		{ID: alice, Record: Record{Points: 11}},
		{ID: bob, Record: Record{Points: 20, Unlocked: true}},
	}, b.data["world"])
}

func TestStore_UpdateClampsInvalidRecords(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(b)
	require.NoError(t, s.Update(context.Background(), "world", alice, Record{Points: -5, ForcedExitCount: -1}))
	assert.Equal(t, Record{}, b.data["world"][0].Record)
}

func TestStore_ContextsAreIndependent(t *testing.T) {
	s := newTestStore(newMemBackend())
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, "world-a", alice, Record{Points: 1}))
	require.NoError(t, s.Update(ctx, "world-b", alice, Record{Points: 2}))

	a, _, err := s.Find(ctx, "world-a", alice)
	require.NoError(t, err)
	b, _, err := s.Find(ctx, "world-b", alice)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Points)
	assert.Equal(t, 2, b.Points)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := newTestStore(newMemBackend())
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, "world", alice, Record{Points: 1}))

	snap, err := s.Snapshot(ctx, "world")
	require.NoError(t, err)
	snap[0].Record.Points = 999

	rec, _, err := s.Find(ctx, "world", alice)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Points)
}

func TestStore_Modify(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(b)
	ctx := context.Background()

	got, err := s.Modify(ctx, "world", alice, func(r Record) (Record, error) {
		r, _ = r.AddPoints(40)
		return r, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 40, got.Points)
	assert.Equal(t, 1, b.saves)

	got, err = s.Modify(ctx, "world", alice, func(r Record) (Record, error) {
		return r, ErrSkipUpdate
	})
	require.NoError(t, err)
	assert.Equal(t, 40, got.Points)
	assert.Equal(t, 1, b.saves, "skip does not write")

	boom := errors.New("boom")
	_, err = s.Modify(ctx, "world", alice, func(r Record) (Record, error) {
		return Record{Points: 1}, boom
	})
	require.ErrorIs(t, err, boom)
	rec, _, _ := s.Find(ctx, "world", alice)
	assert.Equal(t, 40, rec.Points)
}

func TestStore_ConcurrentModifyDoesNotLoseUpdates(t *testing.T) {
	s := newTestStore(newMemBackend())
	ctx := context.Background()
	const workers = 64

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Modify(ctx, "world", alice, func(r Record) (Record, error) {
				r, _ = r.AddPoints(1)
				return r, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, _, err := s.Find(ctx, "world", alice)
	require.NoError(t, err)
	assert.Equal(t, workers, rec.Points)
}

func TestStore_FailedLoadCachesNothing(t *testing.T) {
	b := newMemBackend()
	b.failLoad = errors.New("disk gone")
	s := newTestStore(b)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, "world", alice)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeStorageIO)
	assert.True(t, IsIOError(err))

	b.failLoad = nil
	b.data["world"] = []Entry{{ID: alice, Record: Record{Points: 77}}}
	rec, err := s.GetOrCreate(ctx, "world", alice)
	require.NoError(t, err)
	assert.Equal(t, 77, rec.Points, "the retry reloads from the backend")
}

func TestStore_FailedSaveRollsBack(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(b)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, "world", alice, Record{Points: 5}))

	b.failSave = errors.New("read-only filesystem")
	err := s.Update(ctx, "world", alice, Record{Points: 50})
	errutil.AssertErrorCode(t, err, CodeStorageIO)
	err = s.Update(ctx, "world", bob, Record{Points: 1})
	require.Error(t, err)

	snap, err := s.Snapshot(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{ID: alice, Record: Record{Points: 5}}}, snap)

	_, err = s.Modify(ctx, "world", alice, func(r Record) (Record, error) {
		r.Unlocked = true
		return r, nil
	})
	assert.True(t, IsIOError(err))
	rec, _, _ := s.Find(ctx, "world", alice)
	assert.False(t, rec.Unlocked)
}

func TestStore_FileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(dir, logging.Discard())
	require.NoError(t, err)
	ctx := context.Background()

	s := newTestStore(fb)
	require.NoError(t, s.Update(ctx, "My World", alice, Record{Points: 12, SessionOpen: true}))

	data, err := os.ReadFile(filepath.Join(dir, "My_World.dat"))
	require.NoError(t, err)
	assert.Contains(t, string(data), alice.String()+",12,false,true,0")

	fresh := newTestStore(fb)
	rec, found, err := fresh.Find(ctx, "My World", alice)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Record{Points: 12, SessionOpen: true}, rec)
}

func TestStore_IsIOErrorIgnoresOtherErrors(t *testing.T) {
	assert.False(t, IsIOError(errors.New("plain")))
	assert.False(t, IsIOError(nil))
}
