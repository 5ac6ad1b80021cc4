package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// listedID returns the short id of the list row that mentions subject
func listedID(t *testing.T, listing, subject string) string {
	t.Helper()
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 1 && fields[1] == subject {
			return fields[0]
		}
	}
	t.Fatalf("no row for %s in:\n%s", subject, listing)
	return ""
}

func TestImportAndSessions(t *testing.T) {
	dir := t.TempDir()
	file := writeDataFile(t, dir, "box.txt", multiBoxData)
	db := filepath.Join(dir, "catalog", "sessions.db")

	stdout, _, err := executeCommand(t, "import", file, "--db", db)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(stdout, "Imported 2 sessions from 1 file into "+db) {
		t.Errorf("unexpected import output %q", stdout)
	}

	listing, _, err := executeCommand(t, "sessions", "list", "--db", db)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(listing, "box.txt#1") || !strings.Contains(listing, "box.txt#2") {
		t.Errorf("listing should show both sessions:\n%s", listing)
	}
	id := listedID(t, listing, "rat12")
	if len(id) != shortIDLen {
		t.Errorf("short id %q should have %d characters", id, shortIDLen)
	}

	filtered, _, err := executeCommand(t, "sessions", "list", "--db", db, "--subject", "rat13")
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if strings.Contains(filtered, "rat12") || !strings.Contains(filtered, "rat13") {
		t.Errorf("subject filter not applied:\n%s", filtered)
	}

	shown, _, err := executeCommand(t, "sessions", "show", id, "--db", db)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Source:   " + file + " (session 1)", "Session 1: rat12", "FR1_lever"} {
		if !strings.Contains(shown, want) {
			t.Errorf("show output missing %q:\n%s", want, shown)
		}
	}

	outDir := filepath.Join(dir, "exports")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	exported, _, err := executeCommand(t, "sessions", "export", id, "--db", db, "-o", outDir, "-f", "csv")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	csvPath := filepath.Join(outDir, "box_1_box1.csv")
	if !strings.Contains(exported, "Exported "+id+" to "+csvPath) {
		t.Errorf("unexpected export output %q", exported)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
	if _, _, err := executeCommand(t, "sessions", "export", id, "--db", db, "-o", outDir, "-f", "csv"); err == nil {
		t.Error("export over an existing file without --overwrite should fail")
	}

	deleted, _, err := executeCommand(t, "sessions", "delete", file, "--db", db)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(deleted, "Deleted 2 sessions of "+file) {
		t.Errorf("unexpected delete output %q", deleted)
	}

	empty, _, err := executeCommand(t, "sessions", "list", "--db", db)
	if err != nil {
		t.Fatalf("list after delete failed: %v", err)
	}
	if !strings.Contains(empty, "No sessions stored") {
		t.Errorf("catalog should be empty, got:\n%s", empty)
	}
}

func TestReimportKeepsIDs(t *testing.T) {
	dir := t.TempDir()
	file := writeDataFile(t, dir, "box.txt", multiBoxData)
	db := filepath.Join(dir, "sessions.db")

	if _, _, err := executeCommand(t, "import", file, "--db", db); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	first, _, _ := executeCommand(t, "sessions", "list", "--db", db)

	if _, _, err := executeCommand(t, "import", dir, "--db", db); err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	second, _, _ := executeCommand(t, "sessions", "list", "--db", db)

	if listedID(t, first, "rat12") != listedID(t, second, "rat12") {
		t.Error("re-import should keep session ids")
	}
	if strings.Count(second, "box.txt#") != 2 {
		t.Errorf("re-import should not duplicate sessions:\n%s", second)
	}
}

func TestSessionsShow_UnknownID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sessions.db")
	if _, _, err := executeCommand(t, "sessions", "show", "deadbeef", "--db", db); err == nil {
		t.Error("show of an unknown id should fail")
	}
}

func TestImport_FailedReparseKeepsCatalog(t *testing.T) {
	dir := t.TempDir()
	file := writeDataFile(t, dir, "box.txt", multiBoxData)
	db := filepath.Join(dir, "sessions.db")

	if _, _, err := executeCommand(t, "import", file, "--db", db); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	before, _, _ := executeCommand(t, "sessions", "list", "--db", db)

	// the second box breaks while the file is being edited
	broken := strings.Replace(multiBoxData, "B:        2.000", "B:        2.0x", 1)
	writeDataFile(t, dir, "box.txt", broken)

	_, stderr, err := executeCommand(t, "import", file, "--db", db)
	if err == nil {
		t.Fatal("import of a malformed file should fail")
	}
	if !strings.Contains(stderr, "not importing") {
		t.Errorf("expected a skipped-import warning, got %q", stderr)
	}

	after, _, err := executeCommand(t, "sessions", "list", "--db", db)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Count(after, "box.txt#") != 2 {
		t.Errorf("catalog lost sessions after a failed re-import:\n%s", after)
	}
	if listedID(t, before, "rat13") != listedID(t, after, "rat13") {
		t.Error("session ids changed after a failed re-import")
	}
}
