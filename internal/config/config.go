package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Cost       CostConfig       `mapstructure:"cost"       validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all settings for the upstream language model.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
	MaxRetries   int    `mapstructure:"max_retries"    validate:"gte=0,lte=10"`
}

// GenerationConfig tunes the cached generation client and the
// backlog-refill behavior of the delivery scheduler.
type GenerationConfig struct {
	// CacheMaxEntries caps the in-memory response cache.
	CacheMaxEntries int `mapstructure:"cache_max_entries" validate:"required,gt=0"`

	// BacklogPollInterval is how often the scheduler re-checks the backlog
	// while waiting for an enqueued generation job to land.
	BacklogPollInterval time.Duration `mapstructure:"backlog_poll_interval" validate:"required"`

	// BacklogWaitDeadline bounds how long a daily-word request will wait
	// for generation before failing.
	BacklogWaitDeadline time.Duration `mapstructure:"backlog_wait_deadline" validate:"required"`
}

// CostConfig holds the spend ceilings enforced by the cost monitor.
type CostConfig struct {
	HourlyCeilingUSD float64 `mapstructure:"hourly_ceiling_usd" validate:"required,gt=0"`
	DailyCeilingUSD  float64 `mapstructure:"daily_ceiling_usd"  validate:"required,gt=0"`
}

// TaskConfig tunes the background task runner.
type TaskConfig struct {
	WorkerCount           int           `mapstructure:"worker_count"            validate:"required,gt=0"`
	QueueSize             int           `mapstructure:"queue_size"              validate:"required,gt=0"`
	MaxAttempts           int           `mapstructure:"max_attempts"            validate:"required,gt=0"`
	GenerationConcurrency int           `mapstructure:"generation_concurrency"  validate:"required,gt=0"`
	StuckTaskAge          time.Duration `mapstructure:"stuck_task_age"          validate:"required"`
}
