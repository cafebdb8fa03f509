package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgerlanc/scopegate/internal/testutil"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
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

func TestStartWatchReportsFailures(t *testing.T) {
	setupTestConfig(t, "")
	watchDebounce = 50 * time.Millisecond
	dir := t.TempDir()

	var out syncBuffer
	w, err := startWatch(context.Background(), []string{dir}, &out)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	bad := testutil.WriteFile(t, dir, "bad.py", "print(nowhere)\n")
	want := bad + ": line 1: name 'nowhere' is not defined"

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out, output:\n%s", out.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStartWatchIgnoresOtherFiles(t *testing.T) {
	setupTestConfig(t, "")
	watchDebounce = 50 * time.Millisecond
	dir := t.TempDir()

	var out syncBuffer
	w, err := startWatch(context.Background(), []string{dir}, &out)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	testutil.WriteFile(t, dir, "notes.txt", "print(nowhere)\n")
	time.Sleep(300 * time.Millisecond)
	if got := out.String(); got != "" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestStartWatchRejectsFiles(t *testing.T) {
	setupTestConfig(t, "")
	file := testutil.WriteFile(t, t.TempDir(), "a.py", "x = 1\n")

	if _, err := startWatch(context.Background(), []string{file}, &syncBuffer{}); err == nil {
		t.Error("expected error for a non-directory")
	}
	if _, err := startWatch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, &syncBuffer{}); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestExisting(t *testing.T) {
	dir := t.TempDir()
	kept := testutil.WriteFile(t, dir, "a.py", "")
	got := existing([]string{kept, filepath.Join(dir, "gone.py")})
	if len(got) != 1 || got[0] != kept {
		t.Errorf("existing() = %v", got)
	}
}
