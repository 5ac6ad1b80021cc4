package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the watch goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startWatch runs the watch command until the returned stop function is called
func startWatch(t *testing.T, args ...string) (*syncBuffer, func() error) {
	t.Helper()
	t.Setenv("MPCDATA_HOME", t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	stderr := new(syncBuffer)

	root := NewRootCommand()
	root.SetOut(new(syncBuffer))
	root.SetErr(stderr)
	root.SetArgs(append([]string{"watch"}, args...))

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	waitFor(t, func() bool { return strings.Contains(stderr.String(), "watching") })

	return stderr, func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop after cancel")
			return nil
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met within 10s")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestWatch_ConvertsNewFiles(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()

	stderr, stop := startWatch(t, dataDir, "-o", outDir, "-f", "json", "--debounce", "50ms")

	writeDataFile(t, dataDir, "rat20.txt", singleBoxData)
	waitFor(t, func() bool { return fileExists(filepath.Join(outDir, "rat20.json")) })

	data, err := os.ReadFile(filepath.Join(outDir, "rat20.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "rat20") {
		t.Errorf("output should contain the subject, got %q", data)
	}

	if err := stop(); err != nil {
		t.Errorf("watch returned %v after cancel", err)
	}
	if !strings.Contains(stderr.String(), "Summary") {
		t.Errorf("watch should log a summary on exit, got %q", stderr.String())
	}
}

func TestWatch_InitialAndImport(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()
	db := filepath.Join(t.TempDir(), "sessions.db")
	existing := writeDataFile(t, dataDir, "box.txt", multiBoxData)

	stderr, stop := startWatch(t, dataDir, "-o", outDir, "-f", "json", "--debounce", "50ms",
		"--initial", "--import", "--db", db)

	if !fileExists(filepath.Join(outDir, "box.json")) {
		t.Error("--initial should convert existing files before watching")
	}

	if err := os.Remove(existing); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return strings.Contains(stderr.String(), "removed 2 catalog sessions") })

	if err := stop(); err != nil {
		t.Errorf("watch returned %v after cancel", err)
	}
}

func TestWatch_NotADirectory(t *testing.T) {
	file := writeDataFile(t, t.TempDir(), "rat20.txt", singleBoxData)

	_, _, err := executeCommand(t, "watch", file)
	if err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Errorf("expected not a directory error, got %v", err)
	}
}

func TestWatch_NegativeDebounce(t *testing.T) {
	_, _, err := executeCommand(t, "watch", t.TempDir(), "--debounce=-1s")
	if err == nil || !strings.Contains(err.Error(), "watch.debounce") {
		t.Errorf("expected debounce error, got %v", err)
	}
}
