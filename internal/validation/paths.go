package validation

import (
	"os"
	"path/filepath"
)

// PathHandler resolves the files ytsweep reads and writes.
type PathHandler struct {
	validator *FilePathValidator
	exports   *FilePathValidator
}

func NewSecurePathHandler() *PathHandler {
	return &PathHandler{
		validator: NewFilePathValidator(),
		exports:   NewExportPathValidator(),
	}
}

// NewPermissivePathHandler accepts any location. Used by tests.
func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{
		validator: NewExportPathValidator(),
		exports:   NewExportPathValidator(),
	}
}

// DBPath validates userPath, defaulting to ~/.ytsweep/ytsweep.db.
func (ph *PathHandler) DBPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".ytsweep", "ytsweep.db")
	}
	return ph.validator.ValidateFile(userPath)
}

// IndexPath validates userPath, defaulting to ~/.ytsweep/index.bleve.
// Bleve indexes are directories.
func (ph *PathHandler) IndexPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".ytsweep", "index.bleve")
	}
	return ph.validator.ValidateDirectory(userPath, false)
}

// ExportPath validates a user supplied export file and creates its parent
// directory.
func (ph *PathHandler) ExportPath(userPath string) (string, error) {
	path, err := ph.exports.ValidateFile(userPath)
	if err != nil {
		return "", err
	}
	if _, err := ph.exports.ValidateDirectory(filepath.Dir(path), true); err != nil {
		return "", err
	}
	return path, nil
}
