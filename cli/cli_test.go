package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/colors"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/config"
)

type harness struct {
	t   *testing.T
	dir string
}

func newHarness(t *testing.T) *harness {
	colors.SetColorEnabled(false)
	return &harness{t: t, dir: t.TempDir()}
}

// run executes one command line with fresh flag state and returns stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	createMaxVersions, createMaxBranches = 0, 0
	exportOutput, configList = "", false
	dataDir, accountID = "", ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(h.dir, "config.json"), "--dir", filepath.Join(h.dir, "data")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(h.t, err, "vault %s", strings.Join(args, " "))
	return out
}

func lines(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}

func TestInitWritesConfig(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("", "init")
	assert.Contains(t, out, "Generated account")

	cfg, err := config.LoadConfig(filepath.Join(h.dir, "config.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Account.ID)
	assert.FileExists(t, filepath.Join(h.dir, "data", "vault.db"))

	// A second init keeps the account.
	out = h.mustRun("", "init")
	assert.NotContains(t, out, "Generated account")
}

func TestCommandsRequireInit(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "objects")
	assert.ErrorContains(t, err, "vault init")
}

func TestHistoryWorkflow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "init")
	h.mustRun("", "create", "notes", "--max-versions", "5", "--max-branches", "2")

	first := strings.TrimSpace(h.mustRun("draft", "commit", "notes", "root", "-"))
	assert.True(t, strings.HasPrefix(first, "0-"), first)
	second := strings.TrimSpace(h.mustRun("final", "commit", "notes", first, "-"))
	assert.True(t, strings.HasPrefix(second, "1-"), second)

	assert.Equal(t, []string{second}, lines(h.mustRun("", "tips", "notes")))
	assert.Equal(t, []string{second, first}, lines(h.mustRun("", "branch", "notes", second)))
	assert.Equal(t, "final", h.mustRun("", "cat", second))

	show := h.mustRun("", "show", "notes")
	assert.Contains(t, show, "versions: 2 of 5, branches: max 2")
	assert.Contains(t, show, "root:")

	assert.Equal(t, []string{"notes"}, lines(h.mustRun("", "objects")))

	// A second branch fits, a third exceeds max-branches.
	alt := strings.TrimSpace(h.mustRun("alternative", "commit", "notes", first, "-"))
	_, err := h.run("another", "commit", "notes", first, "-")
	assert.Error(t, err)

	h.mustRun("", "prune", "notes", alt)
	assert.Equal(t, []string{second}, lines(h.mustRun("", "tips", "notes")))

	h.mustRun("", "clear", "notes")
	assert.Empty(t, lines(h.mustRun("", "tips", "notes")))
	h.mustRun("", "delete", "notes")
	assert.Empty(t, lines(h.mustRun("", "objects")))
}

func TestExportApply(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "init")
	h.mustRun("", "create", "doc")
	root := strings.TrimSpace(h.mustRun("v0", "commit", "doc", "root", "-"))

	exported := filepath.Join(h.dir, "doc.sdv")
	h.mustRun("", "export", "doc", "--output", exported)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	h.mustRun("", "apply", "copy", exported)
	assert.Equal(t, []string{root}, lines(h.mustRun("", "tips", "copy")))
	assert.Equal(t, string(data), h.mustRun("", "export", "copy"))

	_, err = h.run("garbage", "apply", "doc", "-")
	assert.Error(t, err)
}

func TestPutRawVersions(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "init")
	h.mustRun("", "create", "raw")

	a := "0-" + strings.Repeat("aa", 32)
	b := "1-" + strings.Repeat("bb", 32)
	h.mustRun("", "put", "raw", a, b)
	show := h.mustRun("", "show", "raw")
	assert.Contains(t, show, "orphan:")
	assert.Contains(t, show, "(none)")

	h.mustRun("", "put", "raw", "root", a)
	assert.Equal(t, []string{a, b}, reverse(lines(h.mustRun("", "branch", "raw", b))))

	_, err := h.run("", "put", "raw", "root", "nonsense")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("", "config", "--list")
	assert.Contains(t, out, "limits.max_versions = 100")

	h.mustRun("", "config", "limits.max_versions", "7")
	assert.Equal(t, "7\n", h.mustRun("", "config", "limits.max_versions"))

	_, err := h.run("", "config", "limits.max_versions", "0")
	assert.Error(t, err)
	_, err = h.run("", "config", "nope.key")
	assert.Error(t, err)
}

func reverse(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
