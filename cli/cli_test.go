package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/stevegt/goadapt"
)

// runLsdb runs the cli against a json store in dir and returns stdout, stderr
// and the exit code.
func runLsdb(t *testing.T, dir string, stdin string, args ...string) (stdout, stderr bytes.Buffer, rc int) {
	t.Helper()
	t.Setenv("LSDB_CONFIG", "")
	t.Setenv("LSDB_ID_SCHEME", "xid")
	config := NewCliConfig()
	config.Stdin = strings.NewReader(stdin)
	config.Stdout = &stdout
	config.Stderr = &stderr
	config.Exit = func(int) {}

	full := append([]string{"--backend", "json", "--data-dir", dir, "--name", "clitest"}, args...)
	rc, _ = Cli(full, config)
	return
}

func decode(t *testing.T, b bytes.Buffer, v any) {
	t.Helper()
	err := json.Unmarshal(b.Bytes(), v)
	Tassert(t, err == nil, "decoding %q: %v", b.String(), err)
}

func TestCliRoundTrip(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, rc := runLsdb(t, dir, "", "collection", "t")
	Tassert(t, rc == 0, "collection rc %d: %s", rc, stderr.String())
	var status map[string]string
	decode(t, stdout, &status)
	Tassert(t, status["status"] == "success", "unexpected status %v", status)

	stdout, stderr, rc = runLsdb(t, dir, "", "insert", "t", `{"foo":"bar"}`)
	Tassert(t, rc == 0, "insert rc %d: %s", rc, stderr.String())
	var foo map[string]any
	decode(t, stdout, &foo)
	Tassert(t, foo["_id"] != nil && foo["foo"] == "bar", "unexpected insert result %v", foo)

	stdout, stderr, rc = runLsdb(t, dir, `[{"number":50},{"number":10}]`, "insert-many", "t", "-")
	Tassert(t, rc == 0, "insert-many rc %d: %s", rc, stderr.String())
	var many []map[string]any
	decode(t, stdout, &many)
	Tassert(t, len(many) == 2, "expected 2 inserted, got %v", many)

	stdout, _, rc = runLsdb(t, dir, "", "count", "t")
	Tassert(t, rc == 0, "count rc %d", rc)
	Tassert(t, strings.TrimSpace(stdout.String()) == "3", "expected 3, got %q", stdout.String())

	stdout, stderr, rc = runLsdb(t, dir, "", "find", "t", `{"where":{"number":{"$gt":20}}}`)
	Tassert(t, rc == 0, "find rc %d: %s", rc, stderr.String())
	var found []map[string]any
	decode(t, stdout, &found)
	Tassert(t, len(found) == 1 && found[0]["number"] == float64(50), "unexpected find result %v", found)

	stdout, _, rc = runLsdb(t, dir, "", "find", "t", `{"sort":{"field":"number","order":"asc"},"limit":2}`)
	Tassert(t, rc == 0, "sorted find rc %d", rc)
	found = nil
	decode(t, stdout, &found)
	Tassert(t, len(found) == 2 && found[0]["foo"] == "bar" && found[1]["number"] == float64(10), "unexpected sorted result %v", found)

	stdout, _, rc = runLsdb(t, dir, "", "find-one", "t", `{"where":{"number":{"$eq":7}}}`)
	Tassert(t, rc == 1, "find-one with no match should exit 1, got %d", rc)
	Tassert(t, strings.TrimSpace(stdout.String()) == "null", "expected null, got %q", stdout.String())

	stdout, stderr, rc = runLsdb(t, dir, "", "update", "t", `{"foo":"bar"}`, `{"foo":"newBar"}`)
	Tassert(t, rc == 0, "update rc %d: %s", rc, stderr.String())
	var up map[string]any
	decode(t, stdout, &up)
	Tassert(t, up["_id"] == foo["_id"] && up["foo"] == "newBar", "unexpected update result %v", up)

	stdout, _, rc = runLsdb(t, dir, "", "delete", "t", `{"where":{"number":{"$lt":100}}}`)
	Tassert(t, rc == 0, "delete rc %d", rc)
	var deleted map[string]int
	decode(t, stdout, &deleted)
	Tassert(t, deleted["deleted"] == 2, "expected 2 deleted, got %v", deleted)

	stdout, _, rc = runLsdb(t, dir, "", "all")
	Tassert(t, rc == 0, "all rc %d", rc)
	var all map[string][]map[string]any
	decode(t, stdout, &all)
	Tassert(t, len(all["t"]) == 1 && all["t"][0]["foo"] == "newBar", "unexpected all result %v", all)

	stdout, _, rc = runLsdb(t, dir, "", "collections")
	Tassert(t, rc == 0, "collections rc %d", rc)
	var names []string
	decode(t, stdout, &names)
	Tassert(t, len(names) == 1 && names[0] == "t", "unexpected collections %v", names)
}

func TestCliErrors(t *testing.T) {
	dir := t.TempDir()

	_, stderr, rc := runLsdb(t, dir, "", "insert", "missing", `{"a":1}`)
	Tassert(t, rc == 1, "expected rc 1, got %d", rc)
	Tassert(t, strings.Contains(stderr.String(), "collection not found"), "unexpected stderr %q", stderr.String())

	_, _, rc = runLsdb(t, dir, "", "collection", "t")
	Tassert(t, rc == 0, "collection rc %d", rc)

	_, stderr, rc = runLsdb(t, dir, "", "find", "t", `{"where":{"a":{"$regex":"x"}}}`)
	Tassert(t, rc == 1, "expected rc 1 for bad operator, got %d", rc)
	Tassert(t, strings.Contains(stderr.String(), "unknown operator"), "unexpected stderr %q", stderr.String())

	_, _, rc = runLsdb(t, dir, "", "insert", "t", `not json`)
	Tassert(t, rc == 1, "expected rc 1 for bad json, got %d", rc)

	_, _, rc = runLsdb(t, dir, "", "no-such-command")
	Tassert(t, rc == 1, "expected rc 1 for unknown command, got %d", rc)
}

func TestCliKeepSorted(t *testing.T) {
	dir := t.TempDir()
	_, stderr, rc := runLsdb(t, dir, "", "collection", "--sort-key", "n", "s")
	Tassert(t, rc == 0, "collection rc %d: %s", rc, stderr.String())
	_, _, rc = runLsdb(t, dir, "", "insert-many", "s", `[{"n":3},{"n":1},{"n":2}]`)
	Tassert(t, rc == 0, "insert-many rc %d", rc)
	stdout, _, rc := runLsdb(t, dir, "", "all", "s")
	Tassert(t, rc == 0, "all rc %d", rc)
	var docs []map[string]any
	decode(t, stdout, &docs)
	Tassert(t, len(docs) == 3, "expected 3 docs, got %v", docs)
	for i, d := range docs {
		Tassert(t, d["n"] == float64(i+1), "doc %d out of order: %v", i, docs)
	}
}

func TestCliVersion(t *testing.T) {
	stdout, _, rc := runLsdb(t, t.TempDir(), "", "version")
	Tassert(t, rc == 0, "version rc %d", rc)
	Tassert(t, strings.TrimSpace(stdout.String()) == version, "unexpected version %q", stdout.String())
}
