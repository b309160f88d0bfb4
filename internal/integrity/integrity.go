package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"romkeeper/internal/catalog"
	"romkeeper/internal/config"
	"romkeeper/internal/fileutil"
	"romkeeper/internal/logging"
)

// IssueType classifies why a file was isolated.
type IssueType string

const (
	IssueCorruption IssueType = "Corruption"
	IssueVirus      IssueType = "Virus"
	IssueMissing    IssueType = "Missing"
	IssueMismatch   IssueType = "Mismatch"
	IssueDuplicate  IssueType = "Duplicate"
)

// Event describes one integrity incident delivered to subscribers.
type Event struct {
	Path      string
	System    string
	Issue     IssueType
	Severity  string
	Details   string
	Timestamp time.Time
}

// Subscriber receives integrity events. Delivery is synchronous; a panic
// in one subscriber never disturbs the others.
type Subscriber func(Event)

// Manager isolates damaged files into the quarantine area and restores
// them, keeping the catalog in sync and notifying subscribers.
type Manager struct {
	store         *catalog.Store
	quarantineDir string
	logger        *slog.Logger

	mu          sync.Mutex
	subscribers []Subscriber
}

// NewManager builds a manager over the catalog using the configured
// quarantine directory.
func NewManager(store *catalog.Store, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:         store,
		quarantineDir: cfg.Paths.QuarantineDir,
		logger:        logger.With(logging.String(logging.FieldComponent, "integrity")),
	}
}

// Subscribe registers a callback for future integrity events.
func (m *Manager) Subscribe(sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, sub)
}

func (m *Manager) emit(event Event) {
	m.logger.Warn("integrity incident",
		logging.String("issue", string(event.Issue)),
		logging.String(logging.FieldPath, event.Path),
		logging.String("severity", event.Severity))

	m.mu.Lock()
	subs := make([]Subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, sub := range subs {
		m.deliver(sub, event)
	}
}

func (m *Manager) deliver(sub Subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("integrity subscriber panicked",
				logging.Any("panic", r),
				logging.String(logging.FieldPath, event.Path))
		}
	}()
	sub(event)
}

// Quarantine moves a file into <quarantine>/<system>/ and rebinds its
// catalog entry with QUARANTINED status, preserving hashes and metadata.
// The physical move happens first; the catalog is only touched once the
// file is safely isolated. Returns the new path.
func (m *Manager) Quarantine(ctx context.Context, path, system, issue, details string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("quarantine source: %w", err)
	}

	dest := filepath.Join(m.quarantineDir, system, filepath.Base(path))
	dest, err := fileutil.NextAvailablePath(dest)
	if err != nil {
		return "", fmt.Errorf("allocate quarantine path: %w", err)
	}

	if err := fileutil.MoveFile(path, dest); err != nil {
		return "", fmt.Errorf("isolate file: %w", err)
	}

	entry, err := m.store.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if entry != nil {
		if err := m.store.Move(ctx, path, dest); err != nil {
			return "", err
		}
		if err := m.store.SetStatus(ctx, dest, catalog.StatusQuarantined); err != nil {
			return "", err
		}
	}

	runID, _ := logging.RunIDFromContext(ctx)
	if err := m.store.LogAction(ctx, dest, catalog.ActionQuarantine, issue+": "+details, runID); err != nil {
		m.logger.Warn("audit write failed", logging.Error(err))
	}

	m.emit(Event{
		Path:      dest,
		System:    system,
		Issue:     classifyIssue(issue),
		Severity:  "High",
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
	return dest, nil
}

// Restore moves a quarantined file back into the library and resets its
// entry to UNKNOWN so the next verification pass re-evaluates it.
func (m *Manager) Restore(ctx context.Context, quarantinedPath, targetDir string) (string, error) {
	if _, err := os.Stat(quarantinedPath); err != nil {
		return "", fmt.Errorf("restore source: %w", err)
	}

	dest := filepath.Join(targetDir, filepath.Base(quarantinedPath))
	dest, err := fileutil.NextAvailablePath(dest)
	if err != nil {
		return "", fmt.Errorf("allocate restore path: %w", err)
	}

	if err := fileutil.MoveFile(quarantinedPath, dest); err != nil {
		return "", fmt.Errorf("restore file: %w", err)
	}

	entry, err := m.store.Get(ctx, quarantinedPath)
	if err != nil {
		return "", err
	}
	if entry != nil {
		if err := m.store.Move(ctx, quarantinedPath, dest); err != nil {
			return "", err
		}
		if err := m.store.SetStatus(ctx, dest, catalog.StatusUnknown); err != nil {
			return "", err
		}
	}

	runID, _ := logging.RunIDFromContext(ctx)
	if err := m.store.LogAction(ctx, dest, catalog.ActionRestore, "restored from quarantine", runID); err != nil {
		m.logger.Warn("audit write failed", logging.Error(err))
	}
	return dest, nil
}

// ListQuarantined returns all catalog entries currently quarantined.
func (m *Manager) ListQuarantined(ctx context.Context) ([]*catalog.Entry, error) {
	return m.store.ListByStatus(ctx, catalog.StatusQuarantined)
}

func classifyIssue(issue string) IssueType {
	switch {
	case containsFold(issue, "corrupt"):
		return IssueCorruption
	case containsFold(issue, "virus"), containsFold(issue, "malware"):
		return IssueVirus
	case containsFold(issue, "missing"):
		return IssueMissing
	case containsFold(issue, "mismatch"):
		return IssueMismatch
	case containsFold(issue, "duplicate"):
		return IssueDuplicate
	default:
		return IssueCorruption
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
