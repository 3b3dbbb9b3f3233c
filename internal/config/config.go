package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/xming13/GoGovSG/internal/errors"
)

const (
	// JSONFileName and TOMLFileName are looked up in the working directory
	// when no file is named.
	JSONFileName = "gogov.json"
	TOMLFileName = "gogov.toml"

	DefaultAddr        = ":8080"
	DefaultDebounce    = 500 * time.Millisecond
	DefaultRows        = 10
	DefaultMetricsPath = "/metrics"
	DefaultTracerName  = "github.com/xming13/GoGovSG"
)

// Directory drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRemote   = "remote"
)

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the complete gogov configuration.
type Config struct {
	Server    ServerConfig    `json:"server" toml:"server"`
	Search    SearchConfig    `json:"search" toml:"search"`
	Directory DirectoryConfig `json:"directory" toml:"directory"`
	Log       LogConfig       `json:"log" toml:"log"`
	Telemetry TelemetryConfig `json:"telemetry" toml:"telemetry"`
	Import    ImportConfig    `json:"import" toml:"import"`

	path string
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string   `json:"addr" toml:"addr" validate:"required"`
	ReadTimeout     Duration `json:"readTimeout" toml:"readTimeout" validate:"gte=0"`
	WriteTimeout    Duration `json:"writeTimeout" toml:"writeTimeout" validate:"gte=0"`
	ShutdownTimeout Duration `json:"shutdownTimeout" toml:"shutdownTimeout" validate:"gte=0"`

	// Gzip compresses responses.
	Gzip bool `json:"gzip" toml:"gzip"`
}

// SearchConfig configures the search controllers.
type SearchConfig struct {
	// Debounce is the quiescence window for typed queries.
	Debounce Duration `json:"debounce" toml:"debounce" validate:"gt=0"`

	// DebounceMode is "push" or "replace".
	DebounceMode string `json:"debounceMode" toml:"debounceMode" validate:"oneof=push replace"`

	DefaultRows  int      `json:"defaultRows" toml:"defaultRows" validate:"gt=0,lte=1000"`
	FetchTimeout Duration `json:"fetchTimeout" toml:"fetchTimeout" validate:"gte=0"`
}

// DirectoryConfig selects and configures the link directory backend.
type DirectoryConfig struct {
	Driver string `json:"driver" toml:"driver" validate:"oneof=memory sqlite postgres remote"`

	// Path is the SQLite database file, or the dump a memory directory is
	// seeded from (a file or an s3:// URL).
	Path string `json:"path" toml:"path" validate:"required_if=Driver sqlite"`

	// DSN is the Postgres connection string.
	DSN string `json:"dsn" toml:"dsn" validate:"required_if=Driver postgres"`

	// URL is the base URL of a remote gogov server.
	URL string `json:"url" toml:"url" validate:"required_if=Driver remote"`

	// Watch reloads a memory directory when its dump file changes.
	Watch bool `json:"watch" toml:"watch"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `json:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" toml:"format" validate:"oneof=text json"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	Metrics     bool   `json:"metrics" toml:"metrics"`
	MetricsPath string `json:"metricsPath" toml:"metricsPath" validate:"omitempty,startswith=/"`
	Tracing     bool   `json:"tracing" toml:"tracing"`
	TracerName  string `json:"tracerName" toml:"tracerName"`
}

// ImportConfig configures reading dumps from S3.
type ImportConfig struct {
	Region string `json:"region" toml:"region"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint" toml:"endpoint"`

	UsePathStyle bool `json:"usePathStyle" toml:"usePathStyle"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
			Gzip:            true,
		},
		Search: SearchConfig{
			Debounce:     Duration(DefaultDebounce),
			DebounceMode: "push",
			DefaultRows:  DefaultRows,
			FetchTimeout: Duration(5 * time.Second),
		},
		Directory: DirectoryConfig{Driver: DriverMemory},
		Log:       LogConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{
			Metrics:     true,
			MetricsPath: DefaultMetricsPath,
			TracerName:  DefaultTracerName,
		},
		Import: ImportConfig{Region: "ap-southeast-1"},
	}
}

// Load returns the configuration from path, or from gogov.json or
// gogov.toml in the working directory when path is empty, with environment
// overrides applied and validated. With no path and no file, the defaults
// are used.
func Load(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		path = find(".")
	}
	if path == "" {
		cfg = New()
	} else {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func find(dir string) string {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFile reads a JSON or TOML file over the defaults. It does not apply
// the environment or validate.
func LoadFile(path string) (*Config, error) {
	var unmarshal func([]byte, any) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		unmarshal = json.Unmarshal
	case ".toml":
		unmarshal = toml.Unmarshal
	default:
		return nil, errors.New(errors.CodeConfigFormat).WithField(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).WithField(path)
		}
		return nil, errors.New(errors.CodeConfigParse).WithField(path).Wrap(err)
	}

	cfg := New()
	if err := unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithField(path).
			Wrap(err).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + strings.TrimPrefix(filepath.Ext(path), "."))
	}
	cfg.path = path
	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for name, dst := range map[string]*string{
		"GOGOV_ADDR":             &c.Server.Addr,
		"GOGOV_DIRECTORY_DRIVER": &c.Directory.Driver,
		"GOGOV_DIRECTORY_DSN":    &c.Directory.DSN,
		"GOGOV_DIRECTORY_PATH":   &c.Directory.Path,
		"GOGOV_DIRECTORY_URL":    &c.Directory.URL,
		"GOGOV_LOG_LEVEL":        &c.Log.Level,
		"GOGOV_LOG_FORMAT":       &c.Log.Format,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field. The first failure is reported as a coded
// error naming the field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.New(errors.CodeConfigInvalid).
			WithField(fieldPath(fe.Namespace())).
			WithDetail(fmt.Sprintf("Value %v fails the %q rule.", fe.Value(), ruleText(fe))).
			Wrap(err)
	}
	return errors.New(errors.CodeConfigInvalid).Wrap(err)
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// fieldPath turns "Config.search.defaultRows" into "search.defaultRows".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
