package localfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceRoundTripAndCleanup(t *testing.T) {
	base := filepath.Join(t.TempDir(), "scratch")
	scratch, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ws, err := scratch.Workspace("pdf")
	if err != nil {
		t.Fatalf("Workspace() error = %v", err)
	}
	path, err := ws.Save("input.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(filepath.Dir(path)) != base {
		t.Fatalf("expected workspace under %s, got %s", base, path)
	}
	got, err := ws.Read("input.pdf")
	if err != nil || string(got) != "%PDF-1.4" {
		t.Fatalf("Read() = %q, %v", got, err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("read base: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected workspace removed, found %d entries", len(entries))
	}
}

func TestWorkspacePathStaysInside(t *testing.T) {
	scratch, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ws, err := scratch.Workspace("x")
	if err != nil {
		t.Fatalf("Workspace() error = %v", err)
	}
	defer ws.Close()

	if got := ws.Path("../../etc/passwd"); filepath.Dir(got) != ws.dir {
		t.Fatalf("expected path confined to workspace, got %s", got)
	}
}

func TestWorkspaceRemove(t *testing.T) {
	scratch, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ws, err := scratch.Workspace("x")
	if err != nil {
		t.Fatalf("Workspace() error = %v", err)
	}
	defer ws.Close()

	if _, err := ws.Save("page-1.png", []byte("png")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := ws.Remove("page-1.png"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := ws.Read("page-1.png"); err == nil {
		t.Fatalf("expected removed file to be gone")
	}
	if err := ws.Remove("page-1.png"); err != nil {
		t.Fatalf("removing a missing file must succeed, got %v", err)
	}
}
