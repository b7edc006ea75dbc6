package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ideapardaz/application/services"
	"ideapardaz/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t        *testing.T
	sessions *services.Sessions
	sign     func(userID, email string, ttl time.Duration) (string, error)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sessions := services.NewSessions(memory.NewBackend(nil), services.StoreOptions{})
	t.Cleanup(func() { _ = sessions.Close() })
	return &harness{t: t, sessions: sessions}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCommand(Env{
		Store:       h.sessions.Store,
		Sign:        h.sign,
		DefaultUser: "local",
		Now:         func() time.Time { return time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC) },
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestAddListShow(t *testing.T) {
	h := newHarness(t)

	vibeID := strings.TrimSpace(h.mustRun("vibes", "add", "Work"))
	first := strings.TrimSpace(h.mustRun("add", "-t", "First", "-c", "one", "-v", vibeID))
	second := strings.TrimSpace(h.mustRun("add", "-t", "Second", "-c", "two", "--link", first))

	h.mustRun("pin", first)
	out := h.mustRun("list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], first, "pinned idea is listed first")
	assert.Contains(t, lines[1], "Work")
	assert.Contains(t, lines[2], second)

	out = h.mustRun("show", first)
	assert.Contains(t, out, "First\n=====")
	assert.Contains(t, out, second+"  Second")
	assert.Contains(t, out, "Pinned:   true")
}

func TestArchiveAndDelete(t *testing.T) {
	h := newHarness(t)
	id := strings.TrimSpace(h.mustRun("add", "-t", "Old", "-c", "x"))

	h.mustRun("archive", id)
	assert.Equal(t, "No ideas\n", h.mustRun("list"))
	assert.Contains(t, h.mustRun("list", "--archived"), id)

	h.mustRun("unarchive", id)
	assert.Contains(t, h.mustRun("list"), id)

	h.mustRun("delete", id)
	assert.Equal(t, "No ideas\n", h.mustRun("list", "--all"))

	_, err := h.run("show", id)
	assert.Error(t, err)
}

func TestLinkUnlink(t *testing.T) {
	h := newHarness(t)
	a := strings.TrimSpace(h.mustRun("add", "-t", "A", "-c", "a"))
	b := strings.TrimSpace(h.mustRun("add", "-t", "B", "-c", "b"))

	h.mustRun("link", a, b)
	assert.Contains(t, h.mustRun("show", b), a+"  A")

	h.mustRun("unlink", b, a)
	assert.NotContains(t, h.mustRun("show", a), "Links:")

	_, err := h.run("link", a, a)
	assert.Error(t, err)
}

func TestVibes(t *testing.T) {
	h := newHarness(t)
	id := strings.TrimSpace(h.mustRun("vibes", "add", "Music"))
	assert.Contains(t, h.mustRun("vibes", "list"), "Music")

	_, err := h.run("vibes", "delete", "1")
	assert.Error(t, err, "built-in vibes cannot be deleted")

	h.mustRun("vibes", "delete", id)
	assert.NotContains(t, h.mustRun("vibes", "list"), "Music")
}

func TestUserFlagSelectsStore(t *testing.T) {
	h := newHarness(t)
	h.mustRun("--user", "alice", "add", "-t", "Hers", "-c", "x")
	assert.Equal(t, "No ideas\n", h.mustRun("list"))
	assert.Contains(t, h.mustRun("-u", "alice", "list"), "Hers")
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "-t", "Keep", "-c", "me")

	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	assert.Contains(t, h.mustRun("export", path), "Exported 1 ideas and 3 vibes")

	stdout := h.mustRun("export", "-")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, stdout, string(data))

	other := newHarness(t)
	_, err = other.run("import", path)
	assert.ErrorContains(t, err, "--yes")

	assert.Contains(t, other.mustRun("import", "--yes", path), "Imported 1 ideas")
	assert.Contains(t, other.mustRun("list"), "Keep")
}

func TestExportDefaultFileName(t *testing.T) {
	h := newHarness(t)
	t.Chdir(t.TempDir())

	h.mustRun("export")
	_, err := os.Stat("ideapardaz_backup_2024-03-05T09-30-00.json")
	assert.NoError(t, err)
}

func TestToken(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("token")
	assert.Error(t, err)

	var gotUser string
	h.sign = func(userID, _ string, _ time.Duration) (string, error) {
		gotUser = userID
		return "signed", nil
	}
	assert.Equal(t, "signed\n", h.mustRun("token", "-u", "bob"))
	assert.Equal(t, "bob", gotUser)
}
