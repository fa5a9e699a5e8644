package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInlineStore_ReturnsDataURI(t *testing.T) {
	s := &InlineStore{}

	ref, err := s.Upload(context.Background(), []byte{0xFF, 0xD8, 0xFF}, "reports/u1/1.jpg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(ref, "data:image/jpeg;base64,") {
		t.Errorf("expected data URI, got %q", ref)
	}
}

func TestInlineStore_EnforcesBudget(t *testing.T) {
	s := &InlineStore{MaxBytes: 10}

	_, err := s.Upload(context.Background(), make([]byte, 100), "reports/u1/1.jpg")
	if err == nil {
		t.Error("expected error when encoded form exceeds budget")
	}
}

func TestFileStore_WritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	s := &FileStore{Root: root}

	data := []byte("jpeg bytes")
	ref, err := s.Upload(context.Background(), data, "reports/u1/1.jpg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(ref, root) {
		t.Errorf("reference %q not under root %q", ref, root)
	}

	got, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("reading blob back: %v", err)
	}
	if string(got) != string(data) {
		t.Error("blob contents mismatch")
	}
	if filepath.Dir(ref) != filepath.Join(root, "reports", "u1") {
		t.Errorf("unexpected blob path %q", ref)
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	s := &FileStore{Root: t.TempDir()}

	if _, err := s.Upload(context.Background(), []byte("x"), "../outside.jpg"); err == nil {
		t.Error("expected error for path traversal hint")
	}
}
