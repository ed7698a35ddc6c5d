package config

// Default file locations.
const (
	DefaultDatabasePath   = "/usr/local/var/foundermatch/data/foundermatch.db"
	DefaultBleveIndexPath = "/usr/local/var/foundermatch/data/indices/bleve"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = DefaultBleveIndexPath
	}
	if cfg.Recommend.DefaultTopN == 0 {
		cfg.Recommend.DefaultTopN = 5
	}
	if cfg.Recommend.MaxTopN == 0 {
		cfg.Recommend.MaxTopN = 100
	}
	if cfg.Recommend.HistoryLimit == 0 {
		cfg.Recommend.HistoryLimit = 20
	}
	if cfg.Recommend.SpellMaxDistance == 0 {
		cfg.Recommend.SpellMaxDistance = 2
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
