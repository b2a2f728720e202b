// Package dotdir resolves the .lovable/ directory that holds config.toml
// and credentials.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the lovable directory.
const DirName = ".lovable"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .lovable/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.lovable/ dir
//  3. Home ~/.lovable/ dir, created when missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, DirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating lovable directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// File returns the absolute path of name inside the resolved directory.
func (m *Manager) File(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// localDirExists checks whether a .lovable/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
