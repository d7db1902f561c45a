package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultRedisURL is empty; without it notifications go to the log.
	DefaultRedisURL = ""

	// DefaultSkillWeight disables the skill-match scoring term unless
	// configured.
	DefaultSkillWeight = 0.0
)
