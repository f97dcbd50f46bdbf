package cmd

import (
	"fmt"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/catalog"
	"github.com/wethinkt/go-colorgorical/internal/config"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
	"github.com/wethinkt/go-colorgorical/internal/server"
	"github.com/wethinkt/go-colorgorical/internal/store"
)

// loadCatalog opens the configured catalog table, or generates the grid
// when no table is configured.
// catalogSource names the catalog c selects.
func catalogSource(c config.CatalogConfig) string {
	if c.Path == "" {
		return "generated"
	}
	return c.Path
}

// referenceSource names the reference sets c selects.
func referenceSource(c config.ReferenceConfig) string {
	if c.Path == "" {
		return "builtin"
	}
	return c.Path
}

func loadCatalog(c config.CatalogConfig) (*catalog.Catalog, error) {
	if c.Path == "" {
		return catalog.Generate(), nil
	}
	cat, err := catalog.Open(c.Path, catalog.LoadOptions{ExpectedSize: c.ExpectedSize})
	if err != nil {
		return nil, err
	}
	applog.Log.Info("Catalog loaded", "path", c.Path, "colors", cat.Len())
	return cat, nil
}

// newEngine builds the palette engine for c.
func newEngine(c config.Config) (*palette.Engine, error) {
	cat, err := loadCatalog(c.Catalog)
	if err != nil {
		return nil, err
	}
	e, err := palette.NewEngine(cat, scoring.NewAnalytic())
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return e, nil
}

// openHistory opens the palette history when enabled. A store that cannot
// be opened disables history with a warning; the returned closer is always
// safe to call.
func openHistory(c config.Config) (*store.Store, func()) {
	if !c.Store.Enabled {
		return nil, func() {}
	}
	path, err := c.StorePath()
	if err == nil {
		var st *store.Store
		if st, err = store.Open(path); err == nil {
			return st, func() {
				if err := st.Close(); err != nil {
					applog.Log.Warn("Closing palette history failed", "error", err)
				}
			}
		}
	}
	applog.Log.Warn("Palette history disabled", "error", err)
	return nil, func() {}
}

// newService builds the engine and a service with history when enabled.
func newService(c config.Config, withHistory bool, opts ...server.ServiceOption) (*server.Service, func(), error) {
	e, err := newEngine(c)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {}
	if withHistory {
		var st *store.Store
		st, closer = openHistory(c)
		if st != nil {
			opts = append(opts, server.WithHistory(st))
		}
	}
	return server.NewService(e, c.Palette, opts...), closer, nil
}
