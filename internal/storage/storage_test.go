package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStore_WriteAndDeleteMatching(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"42-standard-1.pdf", "42-ia-2.pdf", "420-standard-3.pdf", "7-standard-4.pdf"} {
		if _, err := store.WriteFile(ctx, name, []byte("%PDF")); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.DeleteMatching(ctx, "42-*.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 files removed, got %d", n)
	}

	left, _ := store.List(ctx, "*.pdf")
	if len(left) != 2 {
		t.Errorf("expected 420- and 7- files to remain, got %v", left)
	}

	n, err = store.DeleteMatching(ctx, "42-*.pdf")
	if err != nil || n != 0 {
		t.Errorf("second DeleteMatching = %d, %v", n, err)
	}
}

func TestLocalStore_RejectsPaths(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	ctx := context.Background()
	if _, err := store.WriteFile(ctx, "../escape.pdf", nil); err == nil {
		t.Error("expected path traversal to be rejected")
	}
	if _, err := store.DeleteMatching(ctx, "sub/*.pdf"); err == nil {
		t.Error("expected pattern with separator to be rejected")
	}
}

func TestLocalStore_DeleteContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewLocalStore(dir)
	ctx := context.Background()

	// A non-empty directory matching the pattern cannot be removed with os.Remove.
	if err := os.Mkdir(filepath.Join(dir, "9-a.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "9-a.pdf", "inner"), nil, 0o644)
	store.WriteFile(ctx, "9-b.pdf", []byte("x"))

	n, err := store.DeleteMatching(ctx, "9-*.pdf")
	if err == nil {
		t.Error("expected an error for the undeletable entry")
	}
	if n != 1 {
		t.Errorf("expected the deletable file to be removed, got %d", n)
	}
}

func TestLocalStore_DirectoryWithGlobCharacters(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "reports[prod]*?"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, name := range []string{"42-star-1.pdf", "43-star-1.pdf"} {
		if _, err := store.WriteFile(ctx, name, []byte("%PDF")); err != nil {
			t.Fatal(err)
		}
	}

	listed, err := store.List(ctx, "42-*.pdf")
	if err != nil || len(listed) != 1 || listed[0] != "42-star-1.pdf" {
		t.Fatalf("List = %v, %v", listed, err)
	}
	n, err := store.DeleteMatching(ctx, "42-*.pdf")
	if err != nil || n != 1 {
		t.Fatalf("DeleteMatching = %d, %v", n, err)
	}
	left, _ := store.List(ctx, "*.pdf")
	if len(left) != 1 || left[0] != "43-star-1.pdf" {
		t.Errorf("remaining files = %v", left)
	}
}

func TestLocalStore_RejectsBadPattern(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	if _, err := store.List(context.Background(), "42-[.pdf"); err == nil {
		t.Error("expected a malformed pattern to be rejected")
	}
}
