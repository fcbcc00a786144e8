
package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"politefetch/pkg/logger"
)

const DefaultFilename = "output.txt"

// Sink writes fetched text to disk, replacing whatever was there.
type Sink struct {
	log *logger.Logger
}

func New(l *logger.Logger) *Sink { return &Sink{log: l} }

// Save writes content as UTF-8 to filename. The write goes to a temp file in
// the same directory which is then renamed over the destination, so readers
// see either the old file or the complete new one. Failures are logged and
// returned; callers in the pipeline ignore the return value.
func (s *Sink) Save(content, filename string) error {
	if filename == "" {
		filename = DefaultFilename
	}
	if err := writeFile(filename, []byte(content)); err != nil {
		s.log.Errorf("Failed to save content: %v", err)
		return err
	}
	s.log.Infof("Content saved to %s", filename)
	return nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
