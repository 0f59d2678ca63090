package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/codec"
	"github.com/kailas-cloud/civiccompass/internal/domain"
)

const zstdExt = ".zst"

// FS reads site files confined to one root directory. A missing file is retried with a
// ".zst" suffix and transparently decompressed.
type FS struct {
	root *os.Root
}

// OpenFS opens dir as the site root.
func OpenFS(dir string) (*FS, error) {
	r, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open site root %s: %w", dir, err)
	}
	return &FS{root: r}, nil
}

// Close releases the root handle.
func (f *FS) Close() error {
	return f.root.Close()
}

// ReadFile reads a site-relative file, falling back to its zstd-compressed sibling.
func (f *FS) ReadFile(name string) ([]byte, error) {
	rel := clean(name)
	data, err := f.root.ReadFile(rel)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	packed, zerr := f.root.ReadFile(rel + zstdExt)
	if zerr != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	data, err = codec.Decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("read %s%s: %w", rel, zstdExt, err)
	}
	return data, nil
}

// Fetch returns the raw chunk document at a normalized chunk path.
func (f *FS) Fetch(ctx context.Context, chunkPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := f.ReadFile(chunkPath)
	if err != nil {
		return nil, domain.NewChunkError(chunkPath, err)
	}
	return data, nil
}

// clean turns "./data/x.json" into "data/x.json"; os.Root rejects anything escaping the root.
func clean(name string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(name, "./")), "/")
}
