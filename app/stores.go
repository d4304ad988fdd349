package app

import (
	"github.com/kilianp07/omnidispatch/config"
	"github.com/kilianp07/omnidispatch/core/dispatch/logging"
	"github.com/kilianp07/omnidispatch/core/factory"
)

// logStores builds the dispatch decision log selected by logging.backend.
var logStores = factory.NewRegistry[logging.LogStore]()

type storeOptions struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func decodeStore(conf map[string]any) (storeOptions, error) {
	var o storeOptions
	err := factory.Decode(conf, &o)
	return o, err
}

func init() {
	logStores.MustRegister("none", func(map[string]any) (logging.LogStore, error) {
		return logging.NopStore{}, nil
	})
	logStores.MustRegister("jsonl", func(conf map[string]any) (logging.LogStore, error) {
		o, err := decodeStore(conf)
		if err != nil {
			return nil, err
		}
		if o.MaxSizeMB > 0 {
			return logging.NewRotatingJSONLStore(o.Path, o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays)
		}
		return logging.NewJSONLStore(o.Path)
	})
	logStores.MustRegister("sqlite", func(conf map[string]any) (logging.LogStore, error) {
		o, err := decodeStore(conf)
		if err != nil {
			return nil, err
		}
		return logging.NewSQLiteStore(o.Path)
	})
}

func newLogStore(cfg config.LoggingConfig) (logging.LogStore, error) {
	return logStores.Build(factory.Spec{
		Type: cfg.Backend,
		Conf: map[string]any{
			"path":         cfg.Path,
			"max_size_mb":  cfg.MaxSizeMB,
			"max_backups":  cfg.MaxBackups,
			"max_age_days": cfg.MaxAgeDays,
		},
	})
}
