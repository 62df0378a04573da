package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	"github.com/glorpus-work/wingetmirror/pkg/version"
)

// DefaultDailyTime is when the auto-update loop runs unless configured otherwise.
const DefaultDailyTime = "06:00"

// Importer runs one import. *Orchestrator implements it.
type Importer interface {
	Import(ctx context.Context, req Request) (*Result, error)
}

// UpdateSummary reports one update pass.
type UpdateSummary struct {
	Checked  int      `json:"checked"`
	Updated  []string `json:"updated"`
	UpToDate []string `json:"up_to_date"`
	Failed   []string `json:"failed"`
}

// Updater re-imports cached packages whose upstream latest version changed.
type Updater struct {
	Refresher CatalogRefresher
	Catalog   CatalogReader
	Repo      Repository
	Importer  Importer

	// DailyTime is HH:MM in local time.
	DailyTime string
	now       func() time.Time
}

// RunOnce refreshes the catalog and updates every cached package with auto update enabled.
// A failed refresh is logged and the existing snapshot is used.
func (u *Updater) RunOnce(ctx context.Context) (*UpdateSummary, error) {
	summary := &UpdateSummary{Updated: []string{}, UpToDate: []string{}, Failed: []string{}}
	if u.Refresher != nil {
		if _, err := u.Refresher.Refresh(ctx); err != nil {
			logger.Warn("Catalog refresh failed, using existing snapshot", logger.Fields{"error": err})
		}
	}

	for _, entry := range u.Repo.AllPackages() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		pkg := entry.Package
		if !pkg.Cached || pkg.CacheSettings == nil || !pkg.CacheSettings.AutoUpdate {
			continue
		}
		summary.Checked++

		upstream, err := u.Catalog.FindPackage(ctx, pkg.Identifier)
		if err != nil {
			logger.Warn("Cached package not found upstream", logger.Fields{"package": pkg.Identifier, "error": err})
			summary.Failed = append(summary.Failed, pkg.Identifier)
			continue
		}
		local := version.Max(entry.Versions())
		if local != "" && local == upstream.LatestVersion {
			logger.Info("Package is up to date", logger.Fields{"package": pkg.Identifier, "version": local})
			summary.UpToDate = append(summary.UpToDate, pkg.Identifier)
			continue
		}

		logger.Info("Updating cached package", logger.Fields{
			"package": pkg.Identifier, "local": local, "upstream": upstream.LatestVersion,
		})
		settings := *pkg.CacheSettings
		if settings.VersionMode == "" {
			settings.VersionMode = model.VersionModeLatest
		}
		if _, err := u.Importer.Import(ctx, Request{PackageID: pkg.Identifier, Settings: settings}); err != nil {
			logger.Error("Update failed", logger.Fields{"package": pkg.Identifier, "error": err})
			summary.Failed = append(summary.Failed, pkg.Identifier)
			continue
		}
		summary.Updated = append(summary.Updated, pkg.Identifier)
	}
	return summary, nil
}

// Run calls RunOnce every day at DailyTime until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) error {
	hour, minute, err := ParseDailyTime(u.DailyTime)
	if err != nil {
		return err
	}
	for {
		next := NextRun(u.clock(), hour, minute)
		logger.Info("Next cached package update scheduled", logger.Fields{"at": next.Format(time.RFC3339)})
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if _, err := u.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Cached package update failed", logger.Fields{"error": err})
		}
	}
}

func (u *Updater) clock() time.Time {
	if u.now != nil {
		return u.now()
	}
	return time.Now()
}

// ParseDailyTime parses HH:MM. An empty value means DefaultDailyTime.
func ParseDailyTime(s string) (int, int, error) {
	if s == "" {
		s = DefaultDailyTime
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid daily time %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// NextRun returns the first hour:minute strictly after now in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
