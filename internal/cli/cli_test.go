package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"dashstudio/internal/dbconn"
)

type harness struct {
	t      *testing.T
	dir    string
	config string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dashstudio.yaml")
	body := fmt.Sprintf("store:\n  driver: sqlite\n  path: %s\nlog:\n  level: error\n  format: json\nuser: alice\n",
		filepath.Join(dir, "store.db"))
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0644))
	return &harness{t: t, dir: dir, config: cfg}
}

func (h *harness) file(name, body string) string {
	p := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func (h *harness) run(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLI_ApplyShowHistoryRevert(t *testing.T) {
	h := newHarness(t)

	ops := h.file("ops.json", `[
		{"op":"set_style","path":"theme/primaryColor","value":"#ff0000"},
		{"op":"reorder_component","id":"table1","newIndex":0}
	]`)
	out, _, err := h.run("apply", ops)
	require.NoError(t, err)
	assert.Contains(t, out, "revision 1: 2 operation(s) applied, 0 warning(s)")

	out, _, err = h.run("show", "--outline")
	require.NoError(t, err)
	assert.Contains(t, out, "#ff0000")
	assert.Regexp(t, `0\. table1`, out)

	_, _, err = h.run("reset", "blank")
	require.NoError(t, err)

	out, _, err = h.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "reset to blank")
	ids := regexp.MustCompile(`(?m)^([0-9a-f-]{36})\s+1\s`).FindStringSubmatch(out)
	require.Len(t, ids, 2, out)

	out, _, err = h.run("revert", ids[1])
	require.NoError(t, err)
	assert.Contains(t, out, "revision 3")
}

func TestCLI_ApplyTextAndWarnings(t *testing.T) {
	h := newHarness(t)
	reply := h.file("reply.txt", "Sure:\n```json\n[{\"op\":\"reorder_component\",\"id\":\"kpi1\",\"newIndex\":9},{\"op\":\"update\",\"path\":\"layout/columns\",\"value\":3}]\n```")

	_, _, err := h.run("apply", reply)
	require.Error(t, err, "free-form text needs --text")

	out, stderr, err := h.run("apply", reply, "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "1 warning(s)")
	assert.Contains(t, stderr, "warning: operation 1")
}

func TestCLI_Rejections(t *testing.T) {
	h := newHarness(t)
	ops := h.file("bad.json", `[{"op":"remove_component","id":"ghost1"}]`)

	_, _, err := h.run("apply", ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost1")

	_, _, err = h.run("validate", ops)
	require.Error(t, err)

	good := h.file("good.json", `[{"op":"remove_component","id":"kpi1"}]`)
	out, _, err := h.run("validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 1 operation(s)")

	_, _, err = h.run("validate", good, "--against", "blank")
	require.Error(t, err)
}

func TestCLI_PreviewDoesNotSave(t *testing.T) {
	h := newHarness(t)
	ops := h.file("ops.json", `{"op":"update","path":"theme/mode","value":"dark"}`)

	out, _, err := h.run("preview", ops)
	require.NoError(t, err)
	assert.Contains(t, out, `"mode": "dark"`)

	out, _, err = h.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "No versions found.")
}

func TestCLI_ImportCSV(t *testing.T) {
	h := newHarness(t)
	csv := h.file("components.csv", "id,type,label\nkpi2,kpi,Revenue\nnote1,text,\n")

	out, _, err := h.run("import-csv", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "2 operation(s) applied")

	out, _, err = h.run("show")
	require.NoError(t, err)
	assert.Contains(t, out, `"kpi2"`)
	assert.Contains(t, out, `"note1"`)
}

func TestCLI_ImportLegacy(t *testing.T) {
	h := newHarness(t)
	legacy := filepath.Join(h.dir, "legacy")
	require.NoError(t, os.Mkdir(legacy, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "bob.json"), []byte(`{"theme":{"mode":"dark","primaryColor":"#fff",
		"fontSize":"14px","fontFamily":"Inter"},"layout":{"columns":2,"gap":8},"components":[]}`), 0644))

	out, _, err := h.run("import-legacy", legacy)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 schema(s)")

	out, _, err = h.run("show", "--user", "bob", "--outline")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "revision 1"))
	assert.Contains(t, out, "theme: dark")
}

func TestCLI_RequiresUser(t *testing.T) {
	h := newHarness(t)
	noUser := h.file("nouser.yaml", fmt.Sprintf("store:\n  path: %s\n", filepath.Join(h.dir, "other.db")))
	h.config = noUser
	_, _, err := h.run("show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user")
}

func TestCLI_ValidatePrintNormalizes(t *testing.T) {
	h := newHarness(t)
	ops := h.file("ops.json", `[{"op":"move_component","id":"kpi1","x":0,"y":2,"why":"tidy"}]`)

	out, _, err := h.run("validate", ops, "--print")
	require.NoError(t, err)
	assert.Contains(t, out, `"x": 0`)
	assert.NotContains(t, out, "why")
}

func TestCLI_UsersAndDrivers(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("reset", "blank")
	require.NoError(t, err)
	_, _, err = h.run("reset", "--user", "bob")
	require.NoError(t, err)

	out, _, err := h.run("users")
	require.NoError(t, err)
	assert.Equal(t, "alice\nbob\n", out)

	out, _, err = h.run("drivers")
	require.NoError(t, err)
	for _, name := range []string{"mssql", "mysql", "postgres", "sqlite"} {
		assert.Regexp(t, `(?m)^`+name+`\s+ok$`, out)
	}
}

func TestCLI_Keyring(t *testing.T) {
	keyring.MockInit()
	h := newHarness(t)

	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader("hunter2\n"))
	cmd.SetArgs([]string{"--config", h.config, "keyring", "set", "prod"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "saved password for profile prod")

	pw, err := dbconn.Passwords.Load("prod")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	_, _, err = h.run("keyring", "delete", "prod")
	require.NoError(t, err)
	_, err = dbconn.Passwords.Load("prod")
	assert.ErrorIs(t, err, dbconn.ErrNoPassword)
}
