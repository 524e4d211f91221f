package theme

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderDefaultsToSystem(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "theme"), NewStaticSystemSource(Dark))
	defer p.Close()

	assert.Equal(t, System, p.Preference())
	assert.Equal(t, Dark, p.Resolved())
}

func TestProviderPersistsPreference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	src := NewStaticSystemSource(Light)

	p := NewProvider(path, src)
	require.NoError(t, p.Set(Dark))
	p.Close()

	p2 := NewProvider(path, src)
	defer p2.Close()
	assert.Equal(t, Dark, p2.Preference())
	assert.Equal(t, Dark, p2.Resolved())
}

func TestProviderUnknownStoredValueFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	require.NoError(t, os.WriteFile(path, []byte("sepia"), 0o600))

	p := NewProvider(path, NewStaticSystemSource(Light))
	defer p.Close()
	assert.Equal(t, System, p.Preference())
}

func TestProviderRejectsInvalidSet(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "theme"), NewStaticSystemSource(Light))
	defer p.Close()
	assert.Error(t, p.Set("sepia"))
}

func TestProviderFollowsSystemOnlyInSystemMode(t *testing.T) {
	src := NewStaticSystemSource(Light)
	p := NewProvider(filepath.Join(t.TempDir(), "theme"), src)
	defer p.Close()

	var got []Preference
	p.Subscribe(func(pref, resolved Preference) { got = append(got, resolved) })

	src.Change(Dark)
	assert.Equal(t, Dark, p.Resolved())

	require.NoError(t, p.Set(Light))
	src.Change(Light)
	src.Change(Dark)
	assert.Equal(t, Light, p.Resolved())

	assert.Equal(t, []Preference{Dark, Light}, got)
}

func TestFileSystemSourceWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system-theme")
	require.NoError(t, os.WriteFile(path, []byte("light"), 0o600))

	src := NewFileSystemSource(path)
	assert.Equal(t, Light, src.Current())

	var mu sync.Mutex
	var seen []Preference
	stop, err := src.Watch(func(p Preference) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("dark\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == Dark
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileSystemSourceMissingDir(t *testing.T) {
	src := NewFileSystemSource(filepath.Join(t.TempDir(), "missing", "system-theme"))
	assert.Equal(t, Light, src.Current())
	_, err := src.Watch(func(Preference) {})
	assert.Error(t, err)
}
