package directory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	d, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := d.Resolve("alice"); ok {
		t.Error("empty directory resolved a name")
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, zerolog.Nop()); err == nil {
		t.Error("corrupt file should fail Open")
	}
}

func TestRecordAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	d, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Record("alice", "@alice", ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	handle, ok := d.Resolve("alice")
	if !ok || handle != "@alice" {
		t.Errorf("Resolve = %q, %v", handle, ok)
	}
	if _, ok := d.LastPartner("alice"); ok {
		t.Error("last partner should be unset")
	}

	// Recording a partner keeps it; a later update with an empty partner
	// must not clear it.
	if err := d.Record("alice", "@alice", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := d.Record("alice", "@alice-2", ""); err != nil {
		t.Fatal(err)
	}
	handle, _ = d.Resolve("alice")
	if handle != "@alice-2" {
		t.Errorf("handle = %q, want @alice-2", handle)
	}
	partner, ok := d.LastPartner("alice")
	if !ok || partner != "bob" {
		t.Errorf("LastPartner = %q, %v", partner, ok)
	}
}

func TestRecordPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	d, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Record("alice", "@alice", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := d.Record("bob", "@bob", "alice"); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	handle, ok := reopened.Resolve("bob")
	if !ok || handle != "@bob" {
		t.Errorf("Resolve(bob) after reopen = %q, %v", handle, ok)
	}
	partner, ok := reopened.LastPartner("alice")
	if !ok || partner != "bob" {
		t.Errorf("LastPartner(alice) after reopen = %q, %v", partner, ok)
	}
}

func TestFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	d, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Record("alice", "@alice", "bob"); err != nil {
		t.Fatal(err)
	}

	// Flat name → entry map on disk.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a name→entry map: %v", err)
	}
	if raw["alice"].Handle != "@alice" || raw["alice"].LastPartner != "bob" {
		t.Errorf("entry on disk = %+v", raw["alice"])
	}
}

func TestOpenCreatesParentDirOnRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "directory.json")
	d, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Record("alice", "@alice", ""); err != nil {
		t.Fatalf("Record into missing parent dir: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}
