package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/viper"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
)

const (
	DefaultPath = "crawler.yaml"
	EnvPrefix   = "CRAWLER"
)

// Config contains the top-level crawler settings and gives access to the
// per-adapter sections of the same file
type Config struct {
	LogLevel     string
	DataSource   string
	WriterEngine string
	Schedule     string // cron spec, default @daily
	MCPHost      string // default 0.0.0.0
	MCPPort      string // default 8080

	v *viper.Viper
}

// Load reads the YAML config file at path. Top-level keys may be overridden
// with CRAWLER_<KEY> environment variables.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SCHEDULE", "@daily")
	v.SetDefault("MCP_HOST", "0.0.0.0")
	v.SetDefault("MCP_PORT", "8080")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, failure.Wrap(err, failure.WithCode(domain.ErrConfiguration),
			failure.Message(fmt.Sprintf("Cannot read config file %s", path)),
			failure.Context{"path": path},
		)
	}

	cfg := Config{
		LogLevel:     v.GetString("LOG_LEVEL"),
		DataSource:   v.GetString("DATA_SOURCE"),
		WriterEngine: v.GetString("WRITER_ENGINE"),
		Schedule:     v.GetString("SCHEDULE"),
		MCPHost:      v.GetString("MCP_HOST"),
		MCPPort:      v.GetString("MCP_PORT"),
		v:            v,
	}

	var missingKeys []string

	if cfg.DataSource == "" {
		missingKeys = append(missingKeys, "DATA_SOURCE")
	}

	if cfg.WriterEngine == "" {
		missingKeys = append(missingKeys, "WRITER_ENGINE")
	}

	if len(missingKeys) > 0 {
		return cfg, missing("config file "+path, missingKeys)
	}

	return cfg, nil
}

// Section returns the settings block named exactly like an adapter or sink.
// A block absent from the file yields an empty Section.
func (c Config) Section(name string) Section {
	var sub *viper.Viper
	if c.v != nil {
		sub = c.v.Sub(name)
	}
	if sub == nil {
		sub = viper.New()
	}
	return Section{name: name, v: sub}
}

// Section is one named block of adapter settings. Keys are case-insensitive.
type Section struct {
	name string
	v    *viper.Viper
}

// NewSection builds a Section from in-memory values
func NewSection(name string, values map[string]any) Section {
	v := viper.New()
	for key, value := range values {
		v.Set(key, value)
	}
	return Section{name: name, v: v}
}

func (s Section) Name() string {
	return s.name
}

// Require reports every key in keys that the section does not set, at once
func (s Section) Require(keys ...string) error {
	var missingKeys []string
	for _, key := range keys {
		if s.v == nil || !s.v.IsSet(key) {
			missingKeys = append(missingKeys, key)
		}
	}

	if len(missingKeys) > 0 {
		return missing("config section "+s.name, missingKeys)
	}
	return nil
}

// Decode unmarshals the section into out, which must be a pointer to a struct
// with mapstructure tags, and then applies its validate tags
func (s Section) Decode(out any) error {
	if s.v == nil {
		s.v = viper.New()
	}

	if err := s.v.Unmarshal(out); err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrConfiguration),
			failure.Message(fmt.Sprintf("Invalid value in config section %s: %v", s.name, err)),
			failure.Context{"section": s.name},
		)
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return failure.Wrap(err, failure.WithCode(domain.ErrConfiguration))
		}

		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s %s)", fe.Field(), fe.Tag(), fe.Param()))
		}
		return failure.New(domain.ErrConfiguration,
			failure.Message(fmt.Sprintf("Invalid value in config section %s: %s", s.name, strings.Join(fields, ", "))),
			failure.Context{"section": s.name},
		)
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report config keys rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return strings.ToUpper(name)
	})

	return v
}

func missing(where string, keys []string) error {
	return failure.New(domain.ErrConfiguration,
		failure.Message(fmt.Sprintf("Required field is missing from %s: %s", where, strings.Join(keys, ", "))),
		failure.Context{"missing": strings.Join(keys, ",")},
	)
}
