package config

// Config holds inkplan configuration.
// Stored at: ~/.inkplan/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Planner   PlannerCfg             `mapstructure:"planner" yaml:"planner"`
	Pool      PoolCfg                `mapstructure:"pool" yaml:"pool"`
	Cache     CacheCfg               `mapstructure:"cache" yaml:"cache"`
	Store     StoreCfg               `mapstructure:"store" yaml:"store"`
}

// ProviderCfg configures an LLM provider.
type ProviderCfg struct {
	Type        string  `mapstructure:"type" yaml:"type"`       // "openrouter", "openai"
	Model       string  `mapstructure:"model" yaml:"model"`     // Model name
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // Default LLM provider name
}

// PlannerCfg holds segmentation thresholds and toggles.
type PlannerCfg struct {
	MinPanelsForSegmentation int  `mapstructure:"min_panels_for_segmentation" yaml:"min_panels_for_segmentation"`
	WindowSize               int  `mapstructure:"window_size" yaml:"window_size"`
	WindowOverlap            int  `mapstructure:"window_overlap" yaml:"window_overlap"`
	SmallUnitThreshold       int  `mapstructure:"small_unit_threshold" yaml:"small_unit_threshold"`
	MinUnitsPerEpisode       int  `mapstructure:"min_units_per_episode" yaml:"min_units_per_episode"`
	MaxUnitsPerEpisode       int  `mapstructure:"max_units_per_episode" yaml:"max_units_per_episode"`
	EpisodeBundling          bool `mapstructure:"episode_bundling" yaml:"episode_bundling"`
	MaxPanelsPerPage         int  `mapstructure:"max_panels_per_page" yaml:"max_panels_per_page"`
	MinPagesPerEpisode       int  `mapstructure:"min_pages_per_episode" yaml:"min_pages_per_episode"`
	PageBundling             bool `mapstructure:"page_bundling" yaml:"page_bundling"`
}

// PoolCfg holds chunk conversion pool settings.
type PoolCfg struct {
	MaxConcurrency int  `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	JudgeEnabled   bool `mapstructure:"judge_enabled" yaml:"judge_enabled"`
}

// CacheCfg holds plan cache and lock-wait settings.
type CacheCfg struct {
	PollIntervalMillis int `mapstructure:"poll_interval_millis" yaml:"poll_interval_millis"`
	WaitTimeoutSeconds int `mapstructure:"wait_timeout_seconds" yaml:"wait_timeout_seconds"`
}

// StoreCfg selects the durable key/value backend.
type StoreCfg struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "sqlite", "file"
	Path    string `mapstructure:"path" yaml:"path"`       // Empty uses the home default
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// DefaultProvider resolves the configured default provider, falling back to
// any enabled one.
func (c *Config) DefaultProvider() (string, ProviderCfg, bool) {
	if cfg, ok := c.Providers[c.Defaults.Provider]; ok && cfg.Enabled {
		return c.Defaults.Provider, cfg, true
	}
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			return name, cfg, true
		}
	}
	return "", ProviderCfg{}, false
}
