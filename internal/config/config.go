package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Search struct {
		Keywords      []string          `yaml:"keywords"`
		Countries     []string          `yaml:"countries"`
		WorkTypes     []string          `yaml:"work_types"`     // subset of Remote/Hybrid/On-site
		ContractTypes []string          `yaml:"contract_types"` // Full-time, Contract, ...
		TimePosted    string            `yaml:"time_posted"`    // Any / Past 24 hours / Past Week / Past Month
		Pages         int               `yaml:"pages"`
		PerPage       int               `yaml:"per_page"`
		GeoIDs        map[string]string `yaml:"geo_ids"` // overrides merged over defaults
	} `yaml:"search"`

	Batch struct {
		Size       int `yaml:"size"`
		MaxWorkers int `yaml:"max_workers"`
	} `yaml:"batch"`

	Pacing struct {
		RequestsPerSec float64 `yaml:"requests_per_sec"`
		Burst          int     `yaml:"burst"`
		ItemDelayMinMs int     `yaml:"item_delay_min_ms"`
		ItemDelayMaxMs int     `yaml:"item_delay_max_ms"`
		SearchDelayMs  int     `yaml:"search_delay_ms"`
	} `yaml:"pacing"`

	Store struct {
		Backend     string `yaml:"backend"` // workbook | sqlite | postgres
		WorkbookDir string `yaml:"workbook_dir"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"store"`

	Enrich struct {
		Enabled        bool   `yaml:"enabled"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		CVFile         string `yaml:"cv_file"`
		KeyringAccount string `yaml:"keyring_account"`
	} `yaml:"enrich"`

	Notify struct {
		TelegramEnabled bool  `yaml:"telegram_enabled"`
		TelegramChatID  int64 `yaml:"telegram_chat_id"`
	} `yaml:"notify"`
}

// defaultGeoIDs maps country names to the listing service's numeric geo ids.
var defaultGeoIDs = map[string]string{
	"Italy":          "103350119",
	"France":         "105015875",
	"Germany":        "101282230",
	"Spain":          "105646813",
	"Portugal":       "100364837",
	"Netherlands":    "102890719",
	"Switzerland":    "106693272",
	"United Kingdom": "101165590",
	"Ireland":        "104738515",
	"Sweden":         "105117694",
	"Denmark":        "104514075",
	"Finland":        "100456013",
	"Norway":         "103819153",
	"Austria":        "103883259",
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = "."
	}
	if cfg.Search.Pages <= 0 {
		cfg.Search.Pages = 1
	}
	if cfg.Search.PerPage <= 0 {
		cfg.Search.PerPage = 10
	}
	if cfg.Search.TimePosted == "" {
		cfg.Search.TimePosted = "Any"
	}
	if len(cfg.Search.WorkTypes) == 0 {
		cfg.Search.WorkTypes = []string{"Remote"}
	}
	if cfg.Batch.Size <= 0 {
		cfg.Batch.Size = 10
	}
	if cfg.Batch.MaxWorkers <= 0 {
		cfg.Batch.MaxWorkers = 5
	}
	if cfg.Pacing.RequestsPerSec <= 0 {
		cfg.Pacing.RequestsPerSec = 1.0
	}
	if cfg.Pacing.Burst <= 0 {
		cfg.Pacing.Burst = 1
	}
	if cfg.Pacing.ItemDelayMinMs <= 0 {
		cfg.Pacing.ItemDelayMinMs = 300
	}
	if cfg.Pacing.ItemDelayMaxMs < cfg.Pacing.ItemDelayMinMs {
		cfg.Pacing.ItemDelayMaxMs = cfg.Pacing.ItemDelayMinMs + 500
	}
	if cfg.Pacing.SearchDelayMs <= 0 {
		cfg.Pacing.SearchDelayMs = 1000
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "workbook"
	}
	if cfg.Enrich.Model == "" {
		cfg.Enrich.Model = "gpt-4.1-nano"
	}
	if cfg.Enrich.BaseURL == "" {
		cfg.Enrich.BaseURL = "https://api.openai.com/v1"
	}

	// Merge geo id overrides over the built-in table.
	merged := make(map[string]string, len(defaultGeoIDs)+len(cfg.Search.GeoIDs))
	for k, v := range defaultGeoIDs {
		merged[k] = v
	}
	for k, v := range cfg.Search.GeoIDs {
		merged[k] = v
	}
	cfg.Search.GeoIDs = merged
}

// GeoID resolves a configured country name to its numeric geo id.
func (c Config) GeoID(country string) (string, bool) {
	id, ok := c.Search.GeoIDs[country]
	return id, ok
}
