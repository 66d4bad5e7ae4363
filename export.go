package portwatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Exporter persists a serialized snapshot somewhere. A failed export is
// reported and leaves the snapshot untouched.
type Exporter interface {
	Export(snap *Snapshot) (string, error)
}

// FileExporter writes snapshots as JSON documents into a directory.
type FileExporter struct {
	Dir string
}

func (e *FileExporter) Export(snap *Snapshot) (string, error) {
	data, err := snap.Marshal()
	if err != nil {
		return "", err
	}

	fpath := filepath.Join(e.Dir, fmt.Sprintf("portwatch-%s.json", snap.ID))
	if err := writeAtomic(fpath, data); err != nil {
		return "", errors.Wrapf(err, "failed to export snapshot %s", snap.ID)
	}
	return fpath, nil
}

// Write through a temp file and rename, so a crashed export never leaves a
// half-written document behind.
func writeAtomic(fpath string, data []byte) error {
	dir := filepath.Dir(fpath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".portwatch-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fpath)
}
