// Package ledger tracks which outputs a pipeline stage has already produced.
//
// A ledger is a flat UTF-8 text file with one stage-relative path per line,
// append-only. Each stage (export, enhance) keeps its own file.
package ledger

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is the idempotency record for one pipeline stage.
//
// Membership is kept as an in-memory set rebuilt from the log file at load
// time; marking appends to the file and updates the set. The file is created
// lazily on the first mark.
type Ledger struct {
	path    string
	root    string
	entries map[string]struct{}
	loaded  bool
}

// New returns a ledger backed by the given list file, tracking paths relative
// to root.
func New(path, root string) *Ledger {
	return &Ledger{path: path, root: root}
}

func (l *Ledger) load() error {
	if l.loaded {
		return nil
	}
	l.entries = make(map[string]struct{})
	l.loaded = true

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No ledger yet means nothing has been processed.
			return nil
		}
		return fmt.Errorf("opening ledger %s: %w", l.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			l.entries[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading ledger %s: %w", l.path, err)
	}
	slog.Debug("ledger loaded", "path", l.path, "entries", len(l.entries))
	return nil
}

func (l *Ledger) relative(path string) (string, error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "", fmt.Errorf("path %s is not under ledger root %s: %w", path, l.root, err)
	}
	return rel, nil
}

// IsProcessed reports whether path (relative to the ledger root) has been
// marked. A missing ledger file means false, not an error.
func (l *Ledger) IsProcessed(path string) (bool, error) {
	if err := l.load(); err != nil {
		return false, err
	}
	rel, err := l.relative(path)
	if err != nil {
		return false, err
	}
	_, ok := l.entries[rel]
	return ok, nil
}

// MarkProcessed appends path (relative to the ledger root) to the ledger.
// It is called only after the unit of work has completed successfully, so a
// crash mid-work never leaves a false "done" marker.
func (l *Ledger) MarkProcessed(path string) error {
	if err := l.load(); err != nil {
		return err
	}
	rel, err := l.relative(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger %s for append: %w", l.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, rel); err != nil {
		return fmt.Errorf("appending to ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing ledger %s: %w", l.path, err)
	}
	l.entries[rel] = struct{}{}
	slog.Debug("marked processed", "ledger", l.path, "path", rel)
	return nil
}
