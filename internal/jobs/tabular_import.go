package jobs

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/gl"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/gl/tabular"
	"github.com/brightleaf/glsync/internal/glerr"
)

// BuildLocationAliases turns each active store's configured dashboard
// alias into a tabular.LocationAliases lookup table. Stores are sorted by
// ID first so the resulting entry order, and therefore substring fallback
// matching, is deterministic regardless of what order the store registry
// happens to return rows in.
func BuildLocationAliases(stores []domain.Store, log *zap.Logger) tabular.LocationAliases {
	ordered := make([]domain.Store, len(stores))
	copy(ordered, stores)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var entries []tabular.LocationAlias
	for _, s := range ordered {
		if s.DashboardAlias != "" {
			entries = append(entries, tabular.LocationAlias{Dashboard: s.DashboardAlias, Internal: s.Name})
		}
	}
	return tabular.NewLocationAliases(entries, log)
}

// TabularJournal rolls up the pre-aggregated CSV/JSON ingestion rows
// (§4.4) into the same balanced 10-account journal the POS path
// produces. Each row's reported location is resolved to a registered
// store via aliases, rows are grouped by the resolved store, and each
// group is rolled up and built into a journal independently.
func TabularJournal(stores []domain.Store, aliases tabular.LocationAliases, rows []tabular.Row, reportDate string) ([]domain.GLRow, error) {
	byName := make(map[string]domain.Store, len(stores))
	for _, s := range stores {
		byName[s.Name] = s
	}

	grouped := make(map[string][]tabular.Row)
	for _, row := range rows {
		resolved := aliases.Resolve(row.Location)
		grouped[resolved] = append(grouped[resolved], row)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	var journal []domain.GLRow
	for _, name := range names {
		store, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: tabular import: no registered store matches resolved location %q", glerr.ErrConfigMissing, name)
		}
		totals := tabular.Rollup(grouped[name])
		journal = append(journal, gl.BuildJournal(store, totals, reportDate, gl.OverageSignedCredit)...)
	}
	return journal, nil
}
