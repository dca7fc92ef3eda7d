package config

const (
	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultDistributionStrategy selects the built-in round-robin strategy
	// when no strategy flag is given.
	DefaultDistributionStrategy = "DefaultTaskDistribution"
)
