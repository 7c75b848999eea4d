// Package config loads the TOML configuration of the xlsxfixture command.
package config

import (
	"os"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/store/sqlstore"
)

var log = logger.GetOrCreate("config")

// DatabaseConfig selects the database records are loaded into and dumped
// from.
type DatabaseConfig struct {
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn"`
	ShowSQL bool   `toml:"show_sql"`
}

// SerializerConfig mirrors xlsxfixture.Options.
type SerializerConfig struct {
	UseTZ              bool   `toml:"use_tz"`
	TimeZone           string `toml:"time_zone"`
	NaturalPrimaryKeys bool   `toml:"natural_primary_keys"`
	HeaderStyle        *bool  `toml:"header_style"`
	UnsupportedKinds   string `toml:"unsupported_kinds"`
	Layout             string `toml:"layout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a logger pattern such as "*:INFO" or "*:INFO,sqlstore:DEBUG".
	Level string `toml:"level"`
}

// Config is the configuration file.
type Config struct {
	// Models is the path of the YAML model schema.
	Models     string           `toml:"models"`
	Database   DatabaseConfig   `toml:"database"`
	Serializer SerializerConfig `toml:"serializer"`
	Log        LogConfig        `toml:"log"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Models: "models.yml",
		Database: DatabaseConfig{
			Driver: sqlstore.DefaultDriver,
			DSN:    "fixtures.db",
		},
		Serializer: SerializerConfig{
			UnsupportedKinds: string(xlsxfixture.KindPolicyString),
			Layout:           string(xlsxfixture.LayoutSheetName),
		},
		Log: LogConfig{Level: "*:INFO"},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error("cannot close file", "path", path, "error", err.Error())
		}
	}()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	log.Debug("config loaded", "path", path)
	return cfg, nil
}

// Options converts the serializer section to xlsxfixture.Options.
func (c *Config) Options() (xlsxfixture.Options, error) {
	opts := xlsxfixture.DefaultOptions()
	s := c.Serializer
	opts.UseTZ = s.UseTZ
	opts.UseNaturalPrimaryKeys = s.NaturalPrimaryKeys
	opts.HeaderStyle = s.HeaderStyle

	if s.TimeZone != "" {
		loc, err := time.LoadLocation(s.TimeZone)
		if err != nil {
			return opts, errors.Wrapf(err, "time_zone %q", s.TimeZone)
		}
		opts.Location = loc
	}

	switch policy := xlsxfixture.KindPolicy(s.UnsupportedKinds); policy {
	case "":
	case xlsxfixture.KindPolicyString, xlsxfixture.KindPolicyReject:
		opts.UnsupportedKinds = policy
	default:
		return opts, errors.Errorf("unsupported_kinds: unknown policy %q", s.UnsupportedKinds)
	}

	switch layout := xlsxfixture.Layout(s.Layout); layout {
	case "":
	case xlsxfixture.LayoutSheetName, xlsxfixture.LayoutLegacy, xlsxfixture.LayoutAuto:
		opts.Layout = layout
	default:
		return opts, errors.Errorf("layout: unknown layout %q", s.Layout)
	}
	return opts, nil
}
