package fs_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docmap/pkg/adapters/fs"
	"github.com/aretw0/docmap/pkg/core"
)

// setupBackend creates an initialized backend in a temp dir.
func setupBackend(t *testing.T, opts ...func(*fs.Config)) (*fs.Backend, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store")
	cfg := fs.Config{Path: path}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := fs.NewBackend(cfg)
	if !cfg.MustExist && !cfg.ReadOnly {
		require.NoError(t, b.Initialize(context.Background()))
	}
	return b, path
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		_, path := setupBackend(t)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		b, _ := setupBackend(t, func(c *fs.Config) { c.MustExist = true })
		assert.Error(t, b.Initialize(context.Background()))
	})

	t.Run("Rejects Unknown Format", func(t *testing.T) {
		b := fs.NewBackend(fs.Config{Path: t.TempDir(), Format: "toml"})
		assert.Error(t, b.Initialize(context.Background()))
	})
}

func TestSave_ReturnsPersistedRecord(t *testing.T) {
	for _, format := range []string{".json", ".yaml", "md"} {
		t.Run(format, func(t *testing.T) {
			b, path := setupBackend(t, func(c *fs.Config) { c.Format = format })
			ctx := context.Background()

			stored, err := b.Save(ctx, core.Record{
				ID:     "invitations/3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Fields: core.Fields{"name": "bobo"},
			})
			require.NoError(t, err)
			assert.Equal(t, "invitations/3fa85f64-5717-4562-b3fc-2c963f66afa6", stored.ID)
			assert.Equal(t, "bobo", stored.Fields["name"])

			ext := format
			if ext[0] != '.' {
				ext = "." + ext
			}
			_, err = os.Stat(filepath.Join(path, "invitations", "3fa85f64-5717-4562-b3fc-2c963f66afa6"+ext))
			assert.NoError(t, err)

			got, err := b.Get(ctx, stored.ID)
			require.NoError(t, err)
			assert.Equal(t, stored, got)
		})
	}
}

func TestSave_KeepsExistingFileFormat(t *testing.T) {
	b, path := setupBackend(t)
	require.NoError(t, os.WriteFile(filepath.Join(path, "legacy.yaml"), []byte("name: old\n"), 0644))

	stored, err := b.Save(context.Background(), core.Record{ID: "legacy", Fields: core.Fields{"name": "new"}})
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Fields["name"])

	_, err = os.Stat(filepath.Join(path, "legacy.json"))
	assert.True(t, os.IsNotExist(err), "must not fork the record into a second file")
}

func TestSave_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadOnly", func(t *testing.T) {
		dir := t.TempDir()
		b := fs.NewBackend(fs.Config{Path: dir, ReadOnly: true})
		require.NoError(t, b.Initialize(ctx))

		_, err := b.Save(ctx, core.Record{ID: "a"})
		assert.ErrorIs(t, err, core.ErrPersistence)
		assert.ErrorIs(t, err, core.ErrReadOnly)
	})

	t.Run("EscapingID", func(t *testing.T) {
		b, _ := setupBackend(t)
		for _, id := range []string{"../outside", "/abs/path", ""} {
			_, err := b.Save(ctx, core.Record{ID: id})
			assert.ErrorIs(t, err, core.ErrPersistence, id)
		}
	})

	t.Run("UnwritableDirectory", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		b, path := setupBackend(t)
		require.NoError(t, os.Chmod(path, 0555))
		t.Cleanup(func() { _ = os.Chmod(path, 0755) })

		_, err := b.Save(ctx, core.Record{ID: "a", Fields: core.Fields{"name": "x"}})
		assert.ErrorIs(t, err, core.ErrPersistence)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		b, _ := setupBackend(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := b.Save(cctx, core.Record{ID: "a"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGet_NotFound(t *testing.T) {
	b, _ := setupBackend(t)
	_, err := b.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListAndMatch(t *testing.T) {
	b, path := setupBackend(t)
	ctx := context.Background()

	for _, id := range []string{"invitations/b", "invitations/a", "guests/x"} {
		_, err := b.Save(ctx, core.Record{ID: id, Fields: core.Fields{"name": id}})
		require.NoError(t, err)
	}
	// Ignored: system dir, temp file, unknown extension, broken JSON.
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".docmap"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, ".docmap", "hidden.json"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, fs.TempFilePrefix+"123"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "broken.json"), []byte("{"), 0644))

	all, err := b.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"guests/x", "invitations/a", "invitations/b"}, ids)

	matched, err := b.Match(ctx, "invitations/**")
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	_, err = b.Match(ctx, "[")
	assert.Error(t, err)
}

func TestState(t *testing.T) {
	b, path := setupBackend(t, func(c *fs.Config) { c.Format = ".yaml" })
	_, err := b.Save(context.Background(), core.Record{ID: "a"})
	require.NoError(t, err)

	state := b.State().(fs.BackendState)
	assert.Equal(t, path, state.Path)
	assert.Equal(t, ".yaml", state.Format)
	assert.Equal(t, 1, state.Saves)
	assert.NotNil(t, state.LastSave)
	assert.Contains(t, state.Serializers, ".md")
	assert.Equal(t, "fs-backend", b.ComponentType())
}

// lineSerializer stores one "key=value" pair per line.
type lineSerializer struct{}

func (lineSerializer) Parse(r io.Reader) (core.Fields, error) {
	fields := core.Fields{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if k, v, ok := strings.Cut(scanner.Text(), "="); ok {
			fields[k] = v
		}
	}
	return fields, scanner.Err()
}

func (lineSerializer) Serialize(fields core.Fields) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%v\n", k, fields[k])
	}
	return []byte(sb.String()), nil
}

func TestRegisterSerializer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	b := fs.NewBackend(fs.Config{Path: path, Format: ".txt"})
	assert.ErrorContains(t, b.Initialize(context.Background()), "unsupported format: .txt")

	b.RegisterSerializer(".txt", lineSerializer{})
	require.NoError(t, b.Initialize(context.Background()))

	stored, err := b.Save(context.Background(), core.Record{ID: "a", Fields: core.Fields{"name": "bobo"}})
	require.NoError(t, err)
	assert.Equal(t, core.Fields{"name": "bobo"}, stored.Fields)

	data, err := os.ReadFile(filepath.Join(path, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "name=bobo\n", string(data))

	recs, err := b.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)
}
