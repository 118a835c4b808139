// Package config loads application settings and the bookkeeping registry
// (categories, rules, accounts).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"boekhouden/internal/logger"
	"boekhouden/internal/models"
	"boekhouden/internal/reconcile"
)

// Config holds application configuration
type Config struct {
	Env       string `mapstructure:"env"`
	Port      string `mapstructure:"port"`
	ConfigDir string `mapstructure:"config_dir"`

	DB       DBConfig       `mapstructure:"db"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Web      WebConfig      `mapstructure:"web"`
	Books    BooksConfig    `mapstructure:"books"`
	Matching MatchingConfig `mapstructure:"matching"`
	Company  CompanyConfig  `mapstructure:"company"`
}

// DBConfig selects and configures the database. Driver is "sqlite" (the
// default, a local file) or "postgres".
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// JWTConfig configures web API tokens.
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

// WebConfig holds the web login. PasswordHash is a bcrypt hash, see the
// hash-password command.
type WebConfig struct {
	PasswordHash string   `mapstructure:"password_hash"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// BooksConfig names the categories with special meaning.
type BooksConfig struct {
	RevenueCategory string `mapstructure:"revenue_category"`
	PrivateCategory string `mapstructure:"private_category"`
}

// MatchingConfig calibrates the reconciliation engine.
type MatchingConfig struct {
	Threshold float64           `mapstructure:"threshold"`
	Weights   reconcile.Weights `mapstructure:",squash"`
	Keywords  []string          `mapstructure:"keywords"`
}

// CompanyConfig is printed on reports.
type CompanyConfig struct {
	Name       string `mapstructure:"name"`
	FiscalYear int    `mapstructure:"fiscal_year"`
}

var appConfig *Config

// envAliases keeps the unprefixed variable names working.
var envAliases = map[string]string{
	"env":               "ENV",
	"port":              "PORT",
	"db.host":           "DB_HOST",
	"db.port":           "DB_PORT",
	"db.user":           "DB_USER",
	"db.password":       "DB_PASSWORD",
	"db.name":           "DB_NAME",
	"db.sslmode":        "DB_SSLMODE",
	"jwt.secret":        "JWT_SECRET",
	"jwt.expires_in":    "JWT_EXPIRES_IN",
	"web.password_hash": "WEB_PASSWORD_HASH",
}

// Load loads configuration from the default config directory.
func Load() (*Config, error) {
	return LoadDir("")
}

// LoadDir loads configuration with the given config directory. An empty
// dir falls back to BOEKHOUDEN_CONFIG_DIR and then "config".
//
// Sources, lowest precedence first: defaults, {dir}/settings.yaml, .env,
// environment variables (BOEKHOUDEN_ prefix, or the plain aliases above).
func LoadDir(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOEKHOUDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		_ = v.BindEnv(key, "BOEKHOUDEN_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias)
	}

	if dir == "" {
		dir = v.GetString("config_dir")
	}
	v.Set("config_dir", dir)

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("%w: unsupported db driver %q", ErrInvalidConfig, cfg.DB.Driver)
	}

	appConfig = cfg
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	weights := reconcile.DefaultWeights()

	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("config_dir", "config")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", filepath.Join("data", "boekhouden.db"))
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "boekhouden")
	v.SetDefault("db.password", "boekhouden")
	v.SetDefault("db.name", "boekhouden")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", "fallback-secret-key-for-dev-only")
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("web.password_hash", "")
	v.SetDefault("web.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("books.revenue_category", models.CategoryRevenue)
	v.SetDefault("books.private_category", models.CategoryPrivateExpense)

	v.SetDefault("matching.threshold", reconcile.DefaultThreshold)
	v.SetDefault("matching.keyword_bonus", weights.KeywordBonus)
	v.SetDefault("matching.proximity_max", weights.ProximityMax)
	v.SetDefault("matching.proximity_days", weights.ProximityDays)
	v.SetDefault("matching.vendor_bonus", weights.VendorBonus)
	v.SetDefault("matching.keywords", reconcile.DefaultKeywords)

	v.SetDefault("company.name", "")
	v.SetDefault("company.fiscal_year", time.Now().Year())
}

// Get returns the application configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			logger.Get().Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// PostgresDSN returns the gorm connection string.
func (c DBConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// MigrateURL returns the golang-migrate database URL for the driver.
func (c DBConfig) MigrateURL() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
	}
	return "sqlite3://" + c.Path
}

// EnsureDataDir creates the directory holding the sqlite file.
func (c DBConfig) EnsureDataDir() error {
	if c.Driver != "sqlite" || c.Path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.Path), 0o755)
}
