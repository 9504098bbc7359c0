package config

// Config holds the full application configuration.
type Config struct {
	// DefaultSceneDuration is used when a scene has neither narration audio
	// nor an explicit duration. A single value is used at every call site.
	DefaultSceneDuration float64

	// SettlePause follows scroll, click and goto actions so the page has
	// visibly reacted before the next action runs (seconds).
	SettlePause float64

	// ShortPause follows fill and the scroll portion of scroll_to_text.
	ShortPause float64

	// Browser driver settings.
	Headless bool
	SlowMoMS int

	// Narration synthesis pool.
	MaxConcurrentSynth int
	MaxRetries         int
	APIRateLimitPerMin int

	// Encoding.
	Preset string
}

// Default returns a Config with the stock defaults.
func Default() *Config {
	return &Config{
		DefaultSceneDuration: 5.0,
		SettlePause:          0.5,
		ShortPause:           0.3,
		Headless:             false,
		SlowMoMS:             100,
		MaxConcurrentSynth:   3,
		MaxRetries:           3,
		APIRateLimitPerMin:   30,
		Preset:               "slow",
	}
}
