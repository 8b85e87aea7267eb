package config

const (
	DefaultPageWidth         = 375.0
	DefaultVelocityThreshold = 500.0
	DefaultTransitionMS      = 220
	DefaultAnchorInsetX      = 24.0
	DefaultAnchorInsetY      = 96.0

	DefaultMaxSessions      = 50
	DefaultMaxAgeDays       = 30
	DefaultRecentWindowDays = 7

	DefaultPreviewLength = 80
)
