package library

import (
	"context"
	"fmt"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/geo"
	"seogaeum/backend/internal/models"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Directory is the read-only list of library branches.
type Directory interface {
	ListLibraries(ctx context.Context) ([]models.LibraryRecord, error)
}

// StatusLookup fetches live availability and never fails.
type StatusLookup interface {
	SafeLookup(ctx context.Context, libCode, isbn string) Availability
}

// LibraryStatus is one library annotated for display.
type LibraryStatus struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	Phone         string  `json:"phone"`
	Homepage      string  `json:"homepage"`
	HasBook       string  `json:"hasBook"`
	LoanAvailable string  `json:"loanAvailable"`
	DistanceKm    float64 `json:"distanceKm"`
	Favorite      bool    `json:"favorite"`
}

// Aggregator merges a user's favorite libraries with the nearest ones and
// annotates each with live availability.
type Aggregator struct {
	dir    Directory
	lookup StatusLookup
	limit  int
	logger *zap.Logger
}

// NewAggregator creates an aggregator returning at most
// config.MaxLibraryResults libraries.
func NewAggregator(dir Directory, lookup StatusLookup, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		dir:    dir,
		lookup: lookup,
		limit:  config.MaxLibraryResults,
		logger: logger,
	}
}

// GetStatus returns up to five libraries for isbn: favorites first, in the
// order the user listed them, then the nearest remaining ones. Lookups run
// concurrently and each one is bounded and defaulted by the lookup itself,
// so only a directory failure is returned as an error.
func (a *Aggregator) GetStatus(ctx context.Context, isbn string, userLat, userLon *float64, favoriteNames string) ([]LibraryStatus, error) {
	libs, err := a.dir.ListLibraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}

	favorites, nearest := selectLibraries(libs, userLat, userLon, favoriteNames, a.limit)

	out := make([]LibraryStatus, 0, len(favorites)+len(nearest))
	for _, r := range favorites {
		out = append(out, annotate(r, true))
	}
	for _, r := range nearest {
		out = append(out, annotate(r, false))
	}

	var g errgroup.Group
	for i := range out {
		g.Go(func() error {
			av := a.lookup.SafeLookup(ctx, out[i].Code, isbn)
			out[i].HasBook = av.HasBook
			out[i].LoanAvailable = av.LoanAvailable
			return nil
		})
	}
	_ = g.Wait()

	a.logger.Debug("library status aggregated",
		zap.String("isbn", isbn),
		zap.Int("favorites", len(favorites)),
		zap.Int("nearest", len(nearest)))
	return out, nil
}

// selectLibraries resolves favorites by exact name (deduplicated by code,
// unknown names dropped) and fills the remaining slots with the nearest
// libraries not already chosen.
func selectLibraries(libs []models.LibraryRecord, userLat, userLon *float64, favoriteNames string, limit int) (favorites, nearest []geo.Ranked) {
	byName := make(map[string]models.LibraryRecord, len(libs))
	for _, lib := range libs {
		if _, ok := byName[lib.Name]; !ok {
			byName[lib.Name] = lib
		}
	}

	chosen := make(map[string]bool)
	for _, name := range strings.Split(favoriteNames, ",") {
		if len(favorites) == limit {
			break
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		lib, ok := byName[name]
		if !ok || chosen[lib.Code] {
			continue
		}
		chosen[lib.Code] = true
		favorites = append(favorites, geo.Measure(userLat, userLon, lib))
	}

	remaining := make([]models.LibraryRecord, 0, len(libs))
	for _, lib := range libs {
		if !chosen[lib.Code] {
			remaining = append(remaining, lib)
		}
	}

	ranked := geo.Rank(userLat, userLon, remaining)
	if fill := limit - len(favorites); len(ranked) > fill {
		ranked = ranked[:fill]
	}
	return favorites, ranked
}

func annotate(r geo.Ranked, favorite bool) LibraryStatus {
	return LibraryStatus{
		Code:          r.Library.Code,
		Name:          r.Library.Name,
		Address:       r.Library.Address,
		Phone:         r.Library.Phone,
		Homepage:      r.Library.Homepage,
		HasBook:       Unavailable.HasBook,
		LoanAvailable: Unavailable.LoanAvailable,
		DistanceKm:    r.DistanceKm,
		Favorite:      favorite,
	}
}
