package store

import (
	"github.com/fleetroster/rosterd/core/factory"
	"github.com/fleetroster/rosterd/core/plan"
)

var storeRegistry = factory.NewRegistry[plan.Store]()

// RegisterStore adds a plan store factory identified by name.
func RegisterStore(name string, f factory.Factory[plan.Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates a plan store from the provided configuration. A zero
// config falls back to the in-memory store.
func NewStore(cfg factory.ModuleConfig) (plan.Store, error) {
	if cfg.Type == "" {
		return NewMemoryStore(), nil
	}
	return storeRegistry.Create(cfg)
}

// init registers built-in stores.
func init() {
	_ = RegisterStore("memory", func(map[string]any) (plan.Store, error) {
		return NewMemoryStore(), nil
	})

	_ = RegisterStore("sqlite", func(conf map[string]any) (plan.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}
