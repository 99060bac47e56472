package config

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openrouter": {
				Type:        "openrouter",
				Model:       "anthropic/claude-sonnet-4",
				APIKey:      "${OPENROUTER_API_KEY}",
				Temperature: 0.3,
				MaxTokens:   8192,
				Enabled:     true,
			},
			"openai": {
				Type:        "openai",
				Model:       "gpt-4o-mini",
				APIKey:      "${OPENAI_API_KEY}",
				Temperature: 0.3,
				MaxTokens:   8192,
				Enabled:     false,
			},
		},
		Defaults: DefaultsCfg{
			Provider: "openrouter",
		},
		Planner: PlannerCfg{
			MinPanelsForSegmentation: 200,
			WindowSize:               200,
			WindowOverlap:            20,
			SmallUnitThreshold:       400,
			MinUnitsPerEpisode:       10,
			MaxUnitsPerEpisode:       60,
			EpisodeBundling:          true,
			MaxPanelsPerPage:         5,
			MinPagesPerEpisode:       3,
			PageBundling:             true,
		},
		Pool: PoolCfg{
			MaxConcurrency: 4,
			JudgeEnabled:   true,
		},
		Cache: CacheCfg{
			PollIntervalMillis: 250,
			WaitTimeoutSeconds: 15,
		},
		Store: StoreCfg{
			Backend: "sqlite",
		},
	}
}
