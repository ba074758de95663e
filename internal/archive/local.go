package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Local saves under Dir/<kind>/<firm>/.
type Local struct {
	Dir string
}

// Save writes data without ever replacing an existing file.
func (l Local) Save(_ context.Context, kind, firm, name string, data []byte) (string, error) {
	const op = "LocalArchive"

	base, err := filepath.Abs(l.Dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	dir := filepath.Join(base, kind, folder(firm))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: create %s: %w", op, dir, err)
	}

	p, err := WriteNew(dir, name, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// WriteNew writes data to dir/name, or to the first free name_N variant
// when that file exists. Existing files are never replaced.
func WriteNew(dir, name string, data []byte) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		p := filepath.Join(dir, candidate(name, i))
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("open %s: %w", p, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", p, err)
		}
		return p, nil
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}
