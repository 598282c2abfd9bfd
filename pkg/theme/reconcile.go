package theme

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/semver"
)

const reconcileLogPrefix = "theme:reconcile"

// Store persists the theme inventory. *db.Repository satisfies it.
type Store interface {
	ListThemes(ctx context.Context) ([]db.Theme, error)
	UpsertTheme(ctx context.Context, t db.Theme) (*db.Theme, error)
	SetThemeState(ctx context.Context, id, state string) error
}

// Report summarizes one reconciliation.
type Report struct {
	Added    []string
	Upgraded []string
	Missing  []string
	States   map[string]string
}

// Reconcile writes every scanned theme and its state into the inventory.
// Inventoried themes no longer on disk are marked not_found and kept.
func Reconcile(ctx context.Context, store Store, themes []Theme, platformVersion string) (*Report, error) {
	existing, err := store.ListThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s - list themes: %w", reconcileLogPrefix, err)
	}
	known := make(map[string]db.Theme, len(existing))
	for _, t := range existing {
		known[t.ID] = t
	}

	report := &Report{States: map[string]string{}}
	onDisk := make(map[string]bool, len(themes))
	for i := range themes {
		t := &themes[i]
		onDisk[t.ID] = true
		state := t.State(platformVersion)
		report.States[t.ID] = state

		prev, seen := known[t.ID]
		switch {
		case !seen:
			report.Added = append(report.Added, t.ID)
		case isNewer(t.Version, prev.Version):
			report.Upgraded = append(report.Upgraded, t.ID)
		}

		if _, err := store.UpsertTheme(ctx, db.Theme{ID: t.ID, Name: t.Name, Version: t.Version, State: state}); err != nil {
			return nil, fmt.Errorf("%s - upsert %s: %w", reconcileLogPrefix, t.ID, err)
		}
		if t.Err != nil {
			slog.Warn(fmt.Sprintf("%s - %v", reconcileLogPrefix, t.Err))
		}
	}

	for _, t := range existing {
		if onDisk[t.ID] {
			continue
		}
		report.Missing = append(report.Missing, t.ID)
		report.States[t.ID] = StateNotFound
		if t.State == StateNotFound {
			continue
		}
		if err := store.SetThemeState(ctx, t.ID, StateNotFound); err != nil {
			return nil, fmt.Errorf("%s - mark %s not found: %w", reconcileLogPrefix, t.ID, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - %d themes, %d added, %d upgraded, %d missing",
		reconcileLogPrefix, len(themes), len(report.Added), len(report.Upgraded), len(report.Missing)))
	return report, nil
}

func isNewer(version, previous string) bool {
	if previous == "" {
		return false
	}
	c, err := semver.Compare(version, previous)
	return err == nil && c > 0
}
