// Package txn replaces the game's data files as one unit.
//
// A run backs every managed file up, stages the rewritten files in a
// workspace and only then swaps them in. If a swap fails part way, the
// backups are copied back.
package txn

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/heisthecat31/assetpatch/internal/utils"
)

// State is the lifecycle position of a Manager.
type State int

const (
	Idle State = iota
	BackedUp
	Staged
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BackedUp:
		return "backed up"
	case Staged:
		return "staged"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrState     = errors.New("operation not allowed in current state")
	ErrOutside   = errors.New("file is outside the game root")
	ErrRollback  = errors.New("commit failed and live files were restored")
	ErrUnmanaged = errors.New("file is not managed")
)

// IntegrityError lists backups that are missing.
type IntegrityError struct {
	Missing []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("backup incomplete, missing: %s", strings.Join(e.Missing, ", "))
}

// StageError reports a file that could not be staged.
type StageError struct {
	Path string
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StagingSet maps live file paths to their new contents.
type StagingSet map[string][]byte

// Manager owns the backup folder and workspace of one run.
type Manager struct {
	root      string
	backupDir string
	workDir   string
	files     []string
	state     State
	staged    map[string]string

	replace func(src, dst string) error
}

// New creates a Manager for files, which must live below root.
func New(root, backupDir, workDir string, files []string) *Manager {
	return &Manager{
		root:      root,
		backupDir: backupDir,
		workDir:   workDir,
		files:     append([]string(nil), files...),
		replace:   utils.AtomicCopyFile,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state
}

func (m *Manager) rel(live string) (string, error) {
	rel, err := filepath.Rel(m.root, live)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutside, live)
	}
	return rel, nil
}

// BackupPath returns where live is mirrored inside the backup folder.
func (m *Manager) BackupPath(live string) (string, error) {
	rel, err := m.rel(live)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.backupDir, rel), nil
}

// Backup replaces the backup folder with a fresh copy of every managed file.
func (m *Manager) Backup() error {
	if m.state != Idle {
		return fmt.Errorf("%w: backup while %s", ErrState, m.state)
	}
	if err := os.RemoveAll(m.backupDir); err != nil {
		return fmt.Errorf("clear backup folder: %w", err)
	}
	for _, live := range m.files {
		dst, err := m.BackupPath(live)
		if err != nil {
			return err
		}
		if err := utils.CopyFile(live, dst); err != nil {
			return fmt.Errorf("back up %s: %w", live, err)
		}
		slog.Info("backed up", "file", live, "backup", dst)
	}
	m.state = BackedUp
	return nil
}

// Validate checks that every managed file has a backup.
func (m *Manager) Validate() error {
	var missing []string
	for _, live := range m.files {
		p, err := m.BackupPath(live)
		if err != nil {
			return err
		}
		if !utils.FileExists(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &IntegrityError{Missing: missing}
	}
	return nil
}

// Stage writes every blob of set into the workspace. set must cover exactly
// the managed files. No live file is touched.
func (m *Manager) Stage(set StagingSet) error {
	if m.state != BackedUp {
		return fmt.Errorf("%w: stage while %s", ErrState, m.state)
	}
	if err := m.checkSet(set); err != nil {
		return err
	}

	staged := make(map[string]string, len(set))
	for _, live := range m.files {
		rel, _ := m.rel(live)
		p := filepath.Join(m.workDir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			m.Cleanup()
			return &StageError{Path: live, Err: err}
		}
		if err := utils.AtomicWriteFile(p, set[live], 0o644); err != nil {
			m.Cleanup()
			return &StageError{Path: live, Err: err}
		}
		staged[live] = p
	}

	m.staged = staged
	m.state = Staged
	return nil
}

func (m *Manager) checkSet(set StagingSet) error {
	for _, live := range m.files {
		if _, ok := set[live]; !ok {
			return &StageError{Path: live, Err: errors.New("no staged content")}
		}
	}
	if len(set) != len(m.files) {
		var extra []string
		for p := range set {
			if !m.manages(p) {
				extra = append(extra, p)
			}
		}
		sort.Strings(extra)
		return &StageError{Path: strings.Join(extra, ", "), Err: ErrUnmanaged}
	}
	return nil
}

func (m *Manager) manages(p string) bool {
	for _, f := range m.files {
		if f == p {
			return true
		}
	}
	return false
}

// Commit swaps every staged file in. If any swap fails, the backups are
// restored and the returned error wraps ErrRollback. The workspace is removed
// in every case.
func (m *Manager) Commit() error {
	if m.state != Staged {
		return fmt.Errorf("%w: commit while %s", ErrState, m.state)
	}
	defer m.Cleanup()

	for _, live := range m.files {
		if err := m.replace(m.staged[live], live); err != nil {
			slog.Error("commit failed, restoring backups", "file", live, "error", err)
			if rerr := m.Restore(); rerr != nil {
				return fmt.Errorf("replace %s: %w; restore: %w", live, err, rerr)
			}
			return fmt.Errorf("%w: replace %s: %w", ErrRollback, live, err)
		}
		slog.Info("replaced", "file", live)
	}

	m.state = Committed
	return nil
}

// Restore copies every backup over its live file. It refuses to touch any
// live file unless the backup is complete.
func (m *Manager) Restore() error {
	if err := m.Validate(); err != nil {
		return err
	}
	for _, live := range m.files {
		src, _ := m.BackupPath(live)
		if err := os.MkdirAll(filepath.Dir(live), 0o755); err != nil {
			return fmt.Errorf("restore %s: %w", live, err)
		}
		if err := m.replace(src, live); err != nil {
			return fmt.Errorf("restore %s: %w", live, err)
		}
		slog.Info("restored", "file", live)
	}
	m.state = RolledBack
	return nil
}

// Cleanup removes the workspace.
func (m *Manager) Cleanup() {
	if err := os.RemoveAll(m.workDir); err != nil {
		slog.Warn("could not remove workspace", "dir", m.workDir, "reason", err)
	}
	m.staged = nil
}
