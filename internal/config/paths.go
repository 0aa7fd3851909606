package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates the per-user files of the application.
type Paths struct {
	homeDir string
}

// NewPaths resolves paths under the current user's home directory.
func NewPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Paths{homeDir: homeDir}, nil
}

// NewPathsAt resolves paths under homeDir.
func NewPathsAt(homeDir string) *Paths {
	return &Paths{homeDir: homeDir}
}

// DataDir returns ~/.tfassist
func (p *Paths) DataDir() string {
	return filepath.Join(p.homeDir, "."+appName)
}

// LogFile returns ~/.tfassist/tfassist.log
func (p *Paths) LogFile() string {
	return filepath.Join(p.DataDir(), appName+".log")
}

// ConfigFile returns the file written by "config init": ~/.tfassist.toml,
// which the default search path picks up.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.homeDir, "."+appName+".toml")
}

// EnsureDataDir creates the data directory if needed.
func (p *Paths) EnsureDataDir() error {
	if err := os.MkdirAll(p.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.DataDir(), err)
	}
	return nil
}
