package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// Storage drivers
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	Language      string
	HTTPAddr      string
	GoalsFile     string
	Goals         domain.MacroGoals
	Storage       StorageConfig
	DB            DBConfig
	Redis         RedisConfig
	Logger        LoggerConfig
}

type StorageConfig struct {
	Driver string
	Path   string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DSN returns the postgres connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type RedisConfig struct {
	Host string
	Port string
}

// Enabled reports whether a redis server is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultStoragePath(driver string) string {
	switch driver {
	case DriverSQLite:
		return "data/diary.db"
	default:
		return "data/diary.json"
	}
}

// Load reads the configuration from the environment and the optional goals file
func Load() (*Config, error) {
	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverFile))
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		Language:      getEnvOrDefault("LANGUAGE", "en"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		GoalsFile:     os.Getenv("GOALS_FILE"),
		Goals:         domain.DefaultMacroGoals(),
		Storage: StorageConfig{
			Driver: driver,
			Path:   getEnvOrDefault("STORAGE_PATH", defaultStoragePath(driver)),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "macro_diary"),
		},
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if cfg.GoalsFile != "" {
		goals, err := LoadGoals(cfg.GoalsFile, cfg.Goals)
		if err != nil {
			return nil, err
		}
		cfg.Goals = goals
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadGoals reads a YAML goals document. Fields absent from the file keep
// their value from base.
func LoadGoals(path string, base domain.MacroGoals) (domain.MacroGoals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read goals file: %w", err)
	}
	goals := base
	if err := yaml.Unmarshal(data, &goals); err != nil {
		return base, fmt.Errorf("failed to parse goals file: %w", err)
	}
	return goals, nil
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var problems []error

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			problems = append(problems, fmt.Errorf("STORAGE_PATH is required for the %s driver", c.Storage.Driver))
		}
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.DBName == "" {
			problems = append(problems, errors.New("DB_HOST and DB_NAME are required for the postgres driver"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	if c.Language != "en" && c.Language != "zh" {
		problems = append(problems, fmt.Errorf("unsupported LANGUAGE %q", c.Language))
	}

	if err := validator.New().Struct(c.Goals); err != nil {
		problems = append(problems, fmt.Errorf("invalid macro goals: %w", err))
	} else if c.Goals.CarbsPercentage+c.Goals.FatPercentage > 1 {
		problems = append(problems, errors.New("carbs and fat percentages exceed 100%"))
	}

	if c.TelegramToken == "" && c.HTTPAddr == "" {
		problems = append(problems, errors.New("nothing to serve: set TELEGRAM_BOT_TOKEN or HTTP_ADDR"))
	}

	return errors.Join(problems...)
}
