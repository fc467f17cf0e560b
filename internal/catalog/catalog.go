// Package catalog enumerates the themes available to the host from a
// directory of JSON descriptor files.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/themed-dev/themed/internal/domain/theme"
)

// suggestMaxDistance bounds how far a suggested id may be from the input.
const suggestMaxDistance = 3

// debounceDelay coalesces bursts of filesystem events into one rescan.
const debounceDelay = 200 * time.Millisecond

// descriptorFile is the on-disk shape of one theme descriptor. Unknown
// fields are ignored; a missing id falls back to the file stem.
type descriptorFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Note string `json:"note"`
}

// Provider reads theme descriptors from a directory and caches them.
type Provider struct {
	dir    string
	logger *slog.Logger

	mu          sync.RWMutex
	themes      []theme.Descriptor
	fingerprint uint64
}

// New creates a Provider over dir. Call Refresh to perform the first scan.
func New(dir string, logger *slog.Logger) *Provider {
	return &Provider{dir: dir, logger: logger}
}

// Refresh rescans the directory and reports whether the catalog changed
// since the previous scan. Unreadable or invalid descriptor files are
// skipped with a warning, never an error.
func (p *Provider) Refresh() (bool, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return false, fmt.Errorf("read catalog dir: %w", err)
	}

	digest := xxhash.New()
	themes := make([]theme.Descriptor, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		if info, err := entry.Info(); err == nil {
			fmt.Fprintf(digest, "%s|%d|%d;", entry.Name(), info.Size(), info.ModTime().UnixNano())
		}

		path := filepath.Join(p.dir, entry.Name())
		desc, err := readDescriptor(path)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("skipping invalid theme descriptor", "file", entry.Name(), "err", err)
			}
			continue
		}
		if prev, ok := seen[desc.ID]; ok {
			if p.logger != nil {
				p.logger.Warn("duplicate theme id, keeping first", "id", desc.ID, "file", entry.Name(), "kept", prev)
			}
			continue
		}
		seen[desc.ID] = entry.Name()
		themes = append(themes, desc)
	}

	sort.Slice(themes, func(i, j int) bool {
		a := strings.ToLower(themes[i].DisplayName)
		b := strings.ToLower(themes[j].DisplayName)
		if a == b {
			return themes[i].ID < themes[j].ID
		}
		return a < b
	})

	sum := digest.Sum64()
	p.mu.Lock()
	changed := sum != p.fingerprint
	p.themes = themes
	p.fingerprint = sum
	p.mu.Unlock()
	return changed, nil
}

// List returns the cached descriptors sorted by display name.
func (p *Provider) List() []theme.Descriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]theme.Descriptor(nil), p.themes...)
}

// IDs returns the cached theme ids in listing order.
func (p *Provider) IDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.themes))
	for _, desc := range p.themes {
		ids = append(ids, desc.ID)
	}
	return ids
}

// Get returns the descriptor for id, or theme.ErrNotFound.
func (p *Provider) Get(id string) (theme.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, desc := range p.themes {
		if desc.ID == id {
			return desc, nil
		}
	}
	return theme.Descriptor{}, theme.ErrNotFound
}

// Count returns the number of cached themes.
func (p *Provider) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.themes)
}

// Fingerprint returns the hash of the last scan.
func (p *Provider) Fingerprint() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fingerprint
}

// Suggest returns the known id nearest to the input, or empty when
// nothing is within the edit-distance bound.
func (p *Provider) Suggest(id string) string {
	needle := strings.ToLower(strings.TrimSpace(id))
	if needle == "" {
		return ""
	}
	best := ""
	bestDist := suggestMaxDistance + 1
	for _, candidate := range p.IDs() {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(candidate))
		if dist < bestDist {
			best = candidate
			bestDist = dist
		}
	}
	if bestDist > suggestMaxDistance {
		return ""
	}
	return best
}

// Watch blocks watching the catalog directory until ctx is cancelled.
// Filesystem events are debounced; when a rescan reports a change,
// onChange is invoked.
func (p *Provider) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.dir); err != nil {
		return fmt.Errorf("watch %s: %w", p.dir, err)
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				changed, err := p.Refresh()
				if err != nil {
					if p.logger != nil {
						p.logger.Warn("catalog rescan failed", "err", err)
					}
					return
				}
				if changed {
					if p.logger != nil {
						p.logger.Info("catalog changed", "themes", p.Count())
					}
					if onChange != nil {
						onChange()
					}
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if p.logger != nil {
				p.logger.Warn("catalog watcher error", "err", err)
			}
		}
	}
}

func readDescriptor(path string) (theme.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return theme.Descriptor{}, err
	}
	var file descriptorFile
	if err := json.Unmarshal(data, &file); err != nil {
		return theme.Descriptor{}, err
	}
	id := strings.TrimSpace(file.ID)
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = id
	}
	return theme.Descriptor{ID: id, DisplayName: name, Note: strings.TrimSpace(file.Note)}, nil
}
