package corpus

import (
	"io/fs"
	"testing"

	"go.uber.org/zap"
)

// memFS implements the reader consumer interface for tests.
type memFS map[string]string

func (m memFS) ReadFile(name string) ([]byte, error) {
	v, ok := m[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(v), nil
}

func newTestLoader(t *testing.T, files memFS) *Loader {
	t.Helper()
	return NewLoader(files, "data", DefaultFiles(), zap.NewNop())
}
