package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
)

const (
	// IndexFileName is the snapshot database inside the catalog directory.
	IndexFileName  = "index.db"
	statusFileName = "status.yaml"
)

// Status records the last successful snapshot refresh.
type Status struct {
	LastPulled time.Time `yaml:"last_pulled,omitempty"`
	SourceURL  string    `yaml:"source_url,omitempty"`
	IndexPath  string    `yaml:"index_path,omitempty"`
}

// StatusPath returns the status file location for a catalog directory.
func StatusPath(dir string) string {
	return filepath.Join(dir, statusFileName)
}

// IndexPath returns the snapshot location for a catalog directory.
func IndexPath(dir string) string {
	return filepath.Join(dir, IndexFileName)
}

// LoadStatus reads the status file, returning a zero Status when it does not exist.
func LoadStatus(dir string) (Status, error) {
	data, err := os.ReadFile(StatusPath(dir))
	if os.IsNotExist(err) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to read catalog status: %w", err)
	}
	var s Status
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Status{}, fmt.Errorf("failed to parse catalog status: %w", err)
	}
	return s, nil
}

// SaveStatus writes the status file atomically.
func SaveStatus(dir string, s Status) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode catalog status: %w", err)
	}
	return fsutil.WriteFileAtomic(StatusPath(dir), data, fsutil.FileModeDefault)
}
