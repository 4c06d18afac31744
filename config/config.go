package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends understood by the document locator wiring.
const (
	BackendBigQuery = "bigquery"
	BackendPostgres = "postgres"
)

// Config holds every process-wide setting. It is read once at startup and
// treated as immutable afterwards.
type Config struct {
	// Deployment settings. Empty values are allowed, see MissingKeys.
	ProjectID      string `mapstructure:"project_id"`
	Location       string `mapstructure:"location"`
	Dataset        string `mapstructure:"dataset"`
	Table          string `mapstructure:"table"`
	PromptTemplate string `mapstructure:"prompt_template"`
	GeminiModel    string `mapstructure:"gemini_model"`

	Port         string `mapstructure:"port"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	StoreBackend string `mapstructure:"store_backend"`
	PostgresDSN  string `mapstructure:"postgres_dsn"`
	LookupStrict bool   `mapstructure:"lookup_strict"`
}

var defaults = map[string]interface{}{
	"project_id":      "",
	"location":        "",
	"dataset":         "",
	"table":           "",
	"prompt_template": "",
	"gemini_model":    "",
	"port":            "8080",
	"log_level":       "info",
	"log_format":      "json",
	"store_backend":   BackendBigQuery,
	"postgres_dsn":    "",
	"lookup_strict":   false,
}

// Load reads the configuration from the environment, an optional .env file and
// an optional config.yaml. Environment variables win over the file.
func Load() (*Config, error) {
	// A missing .env is the normal case in the hosted runtime.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	return &cfg, nil
}

// MissingKeys lists the deployment settings that were left empty. Nothing is
// rejected here: an empty value surfaces later as a lookup or model failure.
func (c *Config) MissingKeys() []string {
	var missing []string
	for _, kv := range []struct {
		key   string
		value string
	}{
		{"PROJECT_ID", c.ProjectID},
		{"LOCATION", c.Location},
		{"DATASET", c.Dataset},
		{"TABLE", c.Table},
		{"PROMPT_TEMPLATE", c.PromptTemplate},
		{"GEMINI_MODEL", c.GeminiModel},
	} {
		if kv.value == "" {
			missing = append(missing, kv.key)
		}
	}
	return missing
}

// TableRef returns the fully qualified BigQuery table, e.g. project.dataset.table.
func (c *Config) TableRef() string {
	return fmt.Sprintf("%s.%s.%s", c.ProjectID, c.Dataset, c.Table)
}
