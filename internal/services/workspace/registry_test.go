package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Add(t *testing.T) {
	tests := []struct {
		name    string
		initial []Record
		add     Record
		wantErr error
		wantLen int
	}{
		{
			name:    "add first workspace",
			add:     Record{ID: "a", Name: "api", Path: "/src/api"},
			wantLen: 1,
		},
		{
			name:    "add second workspace",
			initial: []Record{{ID: "a", Path: "/src/api"}},
			add:     Record{ID: "b", Path: "/src/web"},
			wantLen: 2,
		},
		{
			name:    "duplicate path after cleaning",
			initial: []Record{{ID: "a", Path: "/src/api"}},
			add:     Record{ID: "b", Path: "/src/api/"},
			wantErr: ErrDuplicateWorkspace,
			wantLen: 1,
		},
		{
			name:    "duplicate id",
			initial: []Record{{ID: "a", Path: "/src/api"}},
			add:     Record{ID: "a", Path: "/src/web"},
			wantErr: ErrDuplicateWorkspace,
			wantLen: 1,
		},
		{
			name:    "empty path",
			add:     Record{ID: "a"},
			wantErr: ErrEmptyPath,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(filepath.Join(t.TempDir(), "workspaces.json"))
			for _, rec := range tt.initial {
				require.NoError(t, r.Add(rec))
			}

			err := r.Add(tt.add)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, r.All(), tt.wantLen)
		})
	}
}

func TestRegistry_RemoveUpdateGet(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "workspaces.json"))
	require.NoError(t, r.Add(Record{ID: "a", Name: "api", Path: "/src/api"}))
	require.NoError(t, r.Add(Record{ID: "b", Name: "web", Path: "/src/web"}))

	assert.True(t, r.Update("a", func(rec *Record) { rec.Cloned = true }))
	rec, ok := r.Get("a")
	require.True(t, ok)
	assert.True(t, rec.Cloned)

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.False(t, r.Update("a", func(*Record) {}))

	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []Record{{ID: "b", Name: "web", Path: "/src/web"}}, r.All())
}

func TestRegistry_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "workspaces.json")

	r := NewRegistry(path)
	require.NoError(t, r.Load())
	assert.Empty(t, r.All())

	require.NoError(t, r.Add(Record{ID: "a", Name: "api", Path: "/src/api", Agent: "codex", Cloned: true}))
	require.NoError(t, r.Save())

	loaded := NewRegistry(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, r.All(), loaded.All())
}

func TestRegistry_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspaces.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	assert.Error(t, NewRegistry(path).Load())
}

func TestRegistry_FindByPath(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "workspaces.json"))
	require.NoError(t, r.Add(Record{ID: "a", Path: "/src/api"}))

	tests := []struct {
		path   string
		wantOK bool
	}{
		{"/src/api", true},
		{"/src/api/internal/handlers", true},
		{"/src/api/", true},
		{"/src/api-v2", false},
		{"/src", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, ok := r.FindByPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "a", rec.ID)
			}
		})
	}
}

func TestDetectRepoRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "cmd", "tool")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, ok := DetectRepoRoot(nested)
	require.True(t, ok)
	assert.Equal(t, root, got)
}
