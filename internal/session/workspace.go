package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"discvault/internal/logging"
)

// Workspace is the scoped temporary directory that owns every generated file
// for a run until final placement. It exists from creation until the run's
// terminal exit path, where Remove reclaims it.
type Workspace struct {
	root   string
	logger *slog.Logger
}

// NewWorkspace creates a fresh temporary directory for one run.
func NewWorkspace(logger *slog.Logger) (*Workspace, error) {
	root, err := os.MkdirTemp("", "discvault-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	logger.Debug("workspace created", logging.String("path", root))
	return &Workspace{root: root, logger: logger}, nil
}

// Root returns the workspace directory path.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins a file name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// Files lists the names of regular files currently in the workspace, sorted.
func (w *Workspace) Files() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("list workspace: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Rename moves a workspace file to a new name within the workspace.
func (w *Workspace) Rename(oldName, newName string) error {
	if err := os.Rename(w.Path(oldName), w.Path(newName)); err != nil {
		return fmt.Errorf("rename workspace file: %w", err)
	}
	return nil
}

// Remove deletes the workspace directory and everything in it. Safe to call
// more than once; every exit path defers it.
func (w *Workspace) Remove() {
	if w.root == "" {
		return
	}
	if err := os.RemoveAll(w.root); err != nil {
		w.logger.Warn("workspace cleanup failed",
			logging.String("path", w.root),
			logging.Error(err))
		return
	}
	w.logger.Debug("workspace removed", logging.String("path", w.root))
	w.root = ""
}
