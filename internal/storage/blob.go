package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InlineStore "uploads" by encoding the image as a data URI suitable
// for storing directly in a document field. This bounds cost and
// latency but caps image size hard; the compressor budget upstream
// keeps the encoded form under MaxBytes.
type InlineStore struct {
	// MaxBytes rejects encoded forms larger than this. Zero disables
	// the check.
	MaxBytes int
}

func (s *InlineStore) Upload(ctx context.Context, data []byte, pathHint string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(data)
	uri := "data:image/jpeg;base64," + encoded
	if s.MaxBytes > 0 && len(uri) > s.MaxBytes {
		return "", fmt.Errorf("encoded image is %d bytes, budget is %d", len(uri), s.MaxBytes)
	}
	return uri, nil
}

// FileStore writes blobs under a root directory and returns the
// resulting path as the durable reference.
type FileStore struct {
	Root string
}

func (s *FileStore) Upload(ctx context.Context, data []byte, pathHint string) (string, error) {
	clean := filepath.Clean("/" + pathHint)
	if strings.Contains(pathHint, "..") {
		return "", fmt.Errorf("invalid path hint: %q", pathHint)
	}
	dest := filepath.Join(s.Root, clean)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("error creating blob directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing blob: %w", err)
	}
	return dest, nil
}
