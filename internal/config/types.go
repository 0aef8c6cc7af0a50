package config

// Config holds all configuration for the application.
type Config struct {
	APIBaseURL    string
	DBPath        string
	MigrationsDir string
	MetricsPort   string
	Turso         TursoConfig
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
