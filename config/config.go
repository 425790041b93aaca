// Package config loads vsixget settings from defaults, an optional TOML
// file and VSIXGET_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/adamwoolhether/vsixget/client"
	"github.com/adamwoolhether/vsixget/client/download"
	"github.com/adamwoolhether/vsixget/client/throttle"
	"github.com/adamwoolhether/vsixget/integrity"
	"github.com/adamwoolhether/vsixget/marketplace"
	"github.com/adamwoolhether/vsixget/validate"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VSIXGET_"

// EnvConfigFile names the environment variable holding a config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

type Config struct {
	Marketplace Marketplace `toml:"marketplace"`
	Download    Download    `toml:"download"`
	Integrity   Integrity   `toml:"integrity"`
	Throttle    Throttle    `toml:"throttle"`
}

type Marketplace struct {
	BaseURL   string `toml:"base_url" validate:"required,url"`
	Mode      string `toml:"mode" validate:"oneof=direct query"`
	UserAgent string `toml:"user_agent"`
}

type Download struct {
	Dir         string        `toml:"dir" validate:"required"`
	Timeout     time.Duration `toml:"timeout" validate:"gt=0"`
	BufferSize  int           `toml:"buffer_size" validate:"gte=512,lte=16777216"`
	Progress    bool          `toml:"progress"`
	StrictNames bool          `toml:"strict_names"`
	SHA256      string        `toml:"sha256" validate:"omitempty,len=64,hexadecimal"`
}

type Integrity struct {
	Backend string `toml:"backend" validate:"oneof=json bolt memory"`
	Path    string `toml:"path"`
}

// Throttle limits marketplace requests. A zero RPS disables it.
type Throttle struct {
	RPS   int `toml:"rps" validate:"gte=0"`
	Burst int `toml:"burst" validate:"gte=0"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Marketplace: Marketplace{
			BaseURL:   marketplace.DefaultBaseURL,
			Mode:      string(marketplace.VariantDirect),
			UserAgent: "vsixget",
		},
		Download: Download{
			Dir:        ".",
			Timeout:    client.DefaultTimeout,
			BufferSize: download.DefaultBufferSize,
			Progress:   true,
		},
		Integrity: Integrity{
			Backend: string(integrity.BackendJSON),
		},
	}
}

// Load layers the TOML file at path (if non-empty) and the environment
// over [Default] and validates the result. lookupEnv is usually
// [os.LookupEnv].
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if lookupEnv != nil {
		if err := cfg.applyEnv(lookupEnv); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("BASE_URL", &c.Marketplace.BaseURL)
	str("MODE", &c.Marketplace.Mode)
	str("USER_AGENT", &c.Marketplace.UserAgent)
	str("DIR", &c.Download.Dir)
	integer("BUFFER_SIZE", &c.Download.BufferSize)
	boolean("PROGRESS", &c.Download.Progress)
	boolean("STRICT_NAMES", &c.Download.StrictNames)
	str("SHA256", &c.Download.SHA256)
	str("STORE", &c.Integrity.Backend)
	str("STORE_PATH", &c.Integrity.Path)
	integer("RPS", &c.Throttle.RPS)
	integer("BURST", &c.Throttle.Burst)

	if v, ok := lookupEnv(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Download.Timeout = d
		}
	}

	return errors.Join(errs...)
}

// Validate reports every invalid setting as [validate.FieldErrors].
func (c *Config) Validate() error {
	if err := validate.Check(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Throttle.RPS > 0 {
		cfg := throttle.Config{RPS: c.Throttle.RPS, Burst: c.Throttle.Burst}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", validate.FieldErrors{{Field: "throttle.burst", Err: err.Error()}})
		}
	}

	return nil
}
