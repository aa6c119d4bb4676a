package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the callmanager directory structure
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base directory (~/.callmanager)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the default config file path (~/.callmanager/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// JournalDir returns the session journal directory (~/.callmanager/journal)
func (p *Paths) JournalDir() string {
	return filepath.Join(p.BaseDir(), "journal")
}

// DevicesDir returns the default WAV device directory (~/.callmanager/devices)
func (p *Paths) DevicesDir() string {
	return filepath.Join(p.BaseDir(), "devices")
}

// LogDir returns the log directory (~/.callmanager/logs)
func (p *Paths) LogDir() string {
	return filepath.Join(p.BaseDir(), "logs")
}

// EnsureJournalDir creates the journal directory if it doesn't exist
func (p *Paths) EnsureJournalDir() error {
	return os.MkdirAll(p.JournalDir(), 0755)
}

// EnsureDevicesDir creates the devices directory if it doesn't exist
func (p *Paths) EnsureDevicesDir() error {
	return os.MkdirAll(p.DevicesDir(), 0755)
}

// EnsureLogDir creates the log directory if it doesn't exist
func (p *Paths) EnsureLogDir() error {
	return os.MkdirAll(p.LogDir(), 0755)
}

// LogPath returns a path within the log directory
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogDir(), name)
}
