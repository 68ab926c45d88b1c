// Package pipeline drives the whole archive through import, matching and
// synchronization, export and enhancement, doing only outstanding work.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/t184256/autosync-voice/internal/config"
	"github.com/t184256/autosync-voice/internal/device"
	"github.com/t184256/autosync-voice/internal/enhance"
	"github.com/t184256/autosync-voice/internal/export"
	"github.com/t184256/autosync-voice/internal/importer"
	"github.com/t184256/autosync-voice/internal/ledger"
	"github.com/t184256/autosync-voice/internal/matchmake"
	"github.com/t184256/autosync-voice/internal/syncer"
)

// enhancedSuffix marks outputs of the enhancement stage; such files are never
// enhanced again.
const enhancedSuffix = ".i.opus"

// Syncer aligns and merges one pair of recordings.
type Syncer interface {
	Sync(ctx context.Context, out, left, right string) error
}

// Exporter transcodes one recording to its export path.
type Exporter interface {
	Export(ctx context.Context, out, in string) error
}

// Enhancer denoises one exported recording.
type Enhancer interface {
	Enhance(ctx context.Context, out, in string) error
}

// Pipeline sequences the stages over the storage trees. A single instance is
// assumed to run against a given storage root at a time; there is no
// cross-process locking.
type Pipeline struct {
	cfg      *config.Config
	syncer   Syncer
	exporter Exporter
	enhancer Enhancer

	detect      func(ctx context.Context) ([]device.Device, error)
	importFiles func(ctx context.Context, devDir, devName, glob, rawDir string) error
}

// New wires a pipeline with the real collaborators.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		syncer:   syncer.New(cfg.Sync.WindowSeconds),
		exporter: export.New(),
		enhancer: enhance.New(),
		detect: func(ctx context.Context) ([]device.Device, error) {
			return device.Detect(ctx, cfg.Devices)
		},
		importFiles: importer.ImportFiles,
	}
}

// RunAll performs one full pass: import, sync, export, enhance.
func (p *Pipeline) RunAll(ctx context.Context) error {
	if err := p.ImportAll(ctx); err != nil {
		return err
	}
	if err := p.SyncAll(ctx); err != nil {
		return err
	}
	if err := p.ExportAll(ctx); err != nil {
		return err
	}
	return p.EnhanceAll(ctx)
}

// Watch re-runs the full pass on a fixed interval until the context is
// cancelled.
func (p *Pipeline) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.RunAll(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			slog.Debug("watch stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// ImportAll imports recordings from every newly plugged-in device.
func (p *Pipeline) ImportAll(ctx context.Context) error {
	devices, err := p.detect(ctx)
	if err != nil {
		return err
	}
	for i := range devices {
		d := &devices[i]
		if d.IsImported(p.cfg.Storage.Meta) {
			slog.Debug("skipping not re-plugged", "device", d.Name)
			fmt.Printf("%s has already been imported, skipping...\n", d.Name)
			continue
		}
		fmt.Printf("%s has been newly plugged in\n", d.Name)
		mountpoint, err := d.CheckMount(ctx)
		if err != nil {
			return err
		}
		glob := p.cfg.Devices[d.Name].Glob
		if err := p.importFiles(ctx, mountpoint, d.Name, glob, p.cfg.Storage.Raw); err != nil {
			return err
		}
		if err := d.MarkImported(p.cfg.Storage.Meta); err != nil {
			return err
		}
		if err := d.Unmount(ctx); err != nil {
			return err
		}
	}
	return nil
}

// dayDirs lists the session-day directories present in raw storage.
func (p *Pipeline) dayDirs() ([]string, error) {
	days, err := filepath.Glob(filepath.Join(p.cfg.Storage.Raw, "20*"))
	if err != nil {
		return nil, fmt.Errorf("listing session days: %w", err)
	}
	return days, nil
}

func (p *Pipeline) matchmaker() *matchmake.Matchmaker {
	infos := make([]matchmake.DeviceInfo, 0, len(p.cfg.Devices))
	for name, dev := range p.cfg.Devices {
		infos = append(infos, matchmake.DeviceInfo{Name: name, PreferChannel: dev.PreferChannel})
	}
	return matchmake.New(infos, p.cfg.Sync.ToleranceMinutes, matchmake.ByChannelPreference)
}

// MatchmakeAll recomputes merge candidates for every session day.
func (p *Pipeline) MatchmakeAll() (map[string]map[string]matchmake.Pair, error) {
	days, err := p.dayDirs()
	if err != nil {
		return nil, err
	}
	m := p.matchmaker()
	all := make(map[string]map[string]matchmake.Pair, len(days))
	for _, day := range days {
		matches, err := m.Match(day, p.cfg.Storage.Raw)
		if err != nil {
			return nil, err
		}
		all[day] = matches
	}
	return all, nil
}

// SyncAll merges every candidate pair whose output does not exist yet. The
// output file's existence is the completion marker for this stage.
func (p *Pipeline) SyncAll(ctx context.Context) error {
	all, err := p.MatchmakeAll()
	if err != nil {
		return err
	}
	for _, matches := range all {
		for out, pair := range matches {
			if _, err := os.Stat(out); err == nil {
				continue
			}
			if err := p.syncer.Sync(ctx, out, pair.Left.Path, pair.Right.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportAll transcodes every raw recording not yet in the export ledger.
func (p *Pipeline) ExportAll(ctx context.Context) error {
	led := ledger.New(p.cfg.Storage.ExportedList, p.cfg.Storage.Processed)
	return p.walkSuffix(p.cfg.Storage.Raw, ".flac", func(path string) error {
		rel, err := filepath.Rel(p.cfg.Storage.Raw, path)
		if err != nil {
			return err
		}
		out := filepath.Join(p.cfg.Storage.Processed,
			strings.TrimSuffix(rel, ".flac")+".opus")
		done, err := led.IsProcessed(out)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		fmt.Printf("exporting to %s\n", out)
		if err := p.exporter.Export(ctx, out, path); err != nil {
			return err
		}
		return led.MarkProcessed(out)
	})
}

// EnhanceAll denoises every exported recording not yet in the enhance
// ledger, skipping files that are themselves enhancement outputs.
func (p *Pipeline) EnhanceAll(ctx context.Context) error {
	led := ledger.New(p.cfg.Storage.EnhancedList, p.cfg.Storage.Processed)
	return p.walkSuffix(p.cfg.Storage.Processed, ".opus", func(path string) error {
		if strings.HasSuffix(path, enhancedSuffix) {
			return nil
		}
		out := strings.TrimSuffix(path, ".opus") + enhancedSuffix
		done, err := led.IsProcessed(out)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		fmt.Printf("improving to %s\n", out)
		if err := p.enhancer.Enhance(ctx, out, path); err != nil {
			return err
		}
		return led.MarkProcessed(out)
	})
}

// walkSuffix applies fn to every file under root with the given suffix. A
// missing root is treated as an empty tree.
func (p *Pipeline) walkSuffix(root, suffix string, fn func(path string) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, suffix) {
			return nil
		}
		return fn(path)
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
