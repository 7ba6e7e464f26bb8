package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// FileName is the default configuration file name.
const FileName = "zaim.yaml"

// EnvPrefix prefixes every environment override, e.g. ZAIM_DATA_PL_DIR.
const EnvPrefix = "ZAIM"

// Config represents the top-level zaim.yaml configuration.
type Config struct {
	Project     ProjectConfig     `yaml:"project"`
	Data        DataConfig        `yaml:"data"`
	Fiscal      FiscalConfig      `yaml:"fiscal"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Audit       AuditConfig       `yaml:"audit"`

	// Dir is the directory relative paths are resolved against. Load sets
	// it to the config file's directory.
	Dir string `yaml:"-" ignored:"true"`
}

// ProjectConfig names the project.
type ProjectConfig struct {
	Name string `yaml:"name" split_words:"true" validate:"required"`
}

// DataConfig locates source files.
type DataConfig struct {
	PLDir     string `yaml:"pl_dir" split_words:"true" validate:"required"`
	BSDir     string `yaml:"bs_dir" split_words:"true" validate:"required"`
	ConfigDir string `yaml:"config_dir" split_words:"true" validate:"required"`
	Encoding  string `yaml:"encoding" split_words:"true" validate:"oneof=shift-jis utf-8 auto"`
}

// FiscalConfig lists the eras fiscal-year codes may use, earliest first.
type FiscalConfig struct {
	Eras []fiscal.Era `yaml:"eras" ignored:"true" validate:"required,min=1,unique=Marker,dive"`
}

// AggregationConfig controls how annual totals are reported.
type AggregationConfig struct {
	TotalPolicy string `yaml:"total_policy" split_words:"true" validate:"oneof=source monthly"`
	Tolerance   int64  `yaml:"tolerance" split_words:"true" validate:"gte=0"`
}

// ServerConfig controls `zaim serve`.
type ServerConfig struct {
	Addr               string        `yaml:"addr" split_words:"true" validate:"required"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" split_words:"true" validate:"gte=0"`
	ReadTimeout        time.Duration `yaml:"read_timeout" split_words:"true" validate:"gte=0"`
	WriteTimeout       time.Duration `yaml:"write_timeout" split_words:"true" validate:"gte=0"`
	// ReloadSchedule is a cron spec ("@every 10m", "0 6 * * *") for
	// reloading snapshots from disk. Empty disables scheduled reloads.
	ReloadSchedule string `yaml:"reload_schedule,omitempty" split_words:"true"`
	Metrics        bool   `yaml:"metrics" split_words:"true"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=text json"`
}

// AuditConfig locates the export/reload audit log.
type AuditConfig struct {
	Path string `yaml:"path" split_words:"true" validate:"required"`
}

// Load reads a zaim.yaml file from disk. It does not apply environment
// overrides or validate; see LoadWithEnv.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// LoadWithEnv loads path, applies a .env file next to it if present, then
// ZAIM_* environment overrides, and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(filepath.Join(cfg.Dir, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv sets variables from a .env file without overriding variables
// already in the environment. A missing file is ignored.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from ZAIM_* variables, e.g. ZAIM_SERVER_ADDR.
// Unset variables leave the loaded value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("applying environment: %w", err)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(projectName string) *Config {
	return &Config{
		Project: ProjectConfig{
			Name: projectName,
		},
		Data: DataConfig{
			PLDir:     filepath.Join("data", "monthly_pl"),
			BSDir:     filepath.Join("data", "monthly_bs"),
			ConfigDir: "config",
			Encoding:  "shift-jis",
		},
		Fiscal: FiscalConfig{
			Eras: append([]fiscal.Era(nil), fiscal.DefaultEras...),
		},
		Aggregation: AggregationConfig{
			TotalPolicy: "source",
			Tolerance:   0,
		},
		Server: ServerConfig{
			Addr:               "127.0.0.1:8080",
			RateLimitPerMinute: 120,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Audit: AuditConfig{
			Path: filepath.Join("logs", "audit-log.csv"),
		},
		Dir: ".",
	}
}

// Validate checks field constraints, that the eras form a usable calendar and
// that the reload schedule parses.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Calendar(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Server.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.Server.ReloadSchedule); err != nil {
			return fmt.Errorf("invalid config: reload_schedule: %w", err)
		}
	}
	return nil
}

// Calendar builds the fiscal calendar from the configured eras.
func (c *Config) Calendar() (*fiscal.Calendar, error) {
	return fiscal.NewCalendar(c.Fiscal.Eras)
}

// Path resolves p against Dir unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// DataDir returns the resolved source directory for a statement.
func (c *Config) DataDir(st model.Statement) string {
	if st == model.StatementBS {
		return c.Path(c.Data.BSDir)
	}
	return c.Path(c.Data.PLDir)
}

// ConfigDir returns the resolved master directory.
func (c *Config) ConfigDir() string {
	return c.Path(c.Data.ConfigDir)
}

// AuditPath returns the resolved audit log path.
func (c *Config) AuditPath() string {
	return c.Path(c.Audit.Path)
}
