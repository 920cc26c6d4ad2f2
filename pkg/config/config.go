package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mapworks/lhmap/pkg/set"
	yaml "gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to all environment overlay variables,
// LHKV_LISTEN overrides listen, LHKV_AUTH_SECRET overrides
// auth.secret and so on.
const EnvPrefix = "lhkv"

const DefaultReadTimeout = Duration(10 * time.Second)
const DefaultWriteTimeout = Duration(10 * time.Second)
const DefaultExpectedKeys = 1024
const DefaultMaxValueSize = 64 * 1024

type Config struct {
	Listen        string   `yaml:"listen"`
	ReadTimeout   Duration `yaml:"read-timeout" split_words:"true"`
	WriteTimeout  Duration `yaml:"write-timeout" split_words:"true"`
	ExpectedKeys  int      `yaml:"expected-keys" split_words:"true"`
	MaxValueSize  int      `yaml:"max-value-size" split_words:"true"`
	ProtectedKeys []string `yaml:"protected-keys" split_words:"true"`
	Auth          Auth     `yaml:"auth"`
}

type Auth struct {
	Secret string `yaml:"secret"`
}

// Duration decodes YAML scalars and environment values
// in the time.ParseDuration format such as "250ms" and "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

func (d *Duration) UnmarshalText(t []byte) error {
	v, err := time.ParseDuration(string(t))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// ReadFile reads the configuration file at path, applies the
// environment overlay and defaults optional features.
func ReadFile(filesystem fs.FS, path string) (*Config, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ErrorMissing{FilePath: path}
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	var c Config
	d := yaml.NewDecoder(f)
	d.KnownFields(true)
	if err := d.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ErrorIllegal{
			FilePath: path,
			Feature:  "syntax",
			Message:  err.Error(),
		}
	}

	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if c.Listen == "" {
		return nil, &ErrorMissing{
			FilePath: path,
			Feature:  "listen",
		}
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return nil, &ErrorIllegal{
			FilePath: path,
			Feature:  "listen",
			Message:  err.Error(),
		}
	}
	if c.ReadTimeout < 0 {
		return nil, &ErrorIllegal{
			FilePath: path,
			Feature:  "read-timeout",
			Message:  "must not be negative",
		}
	}
	if c.WriteTimeout < 0 {
		return nil, &ErrorIllegal{
			FilePath: path,
			Feature:  "write-timeout",
			Message:  "must not be negative",
		}
	}
	if c.ExpectedKeys < 0 {
		return nil, &ErrorIllegal{
			FilePath: path,
			Feature:  "expected-keys",
			Message:  "must not be negative",
		}
	}
	if c.MaxValueSize < 0 {
		return nil, &ErrorIllegal{
			FilePath: path,
			Feature:  "max-value-size",
			Message:  "must not be negative",
		}
	}

	seen := set.New[string]()
	for _, k := range c.ProtectedKeys {
		if k == "" {
			return nil, &ErrorIllegal{
				FilePath: path,
				Feature:  "protected-keys",
				Message:  "empty key",
			}
		}
		if !seen.Add(k) {
			return nil, &ErrorIllegal{
				FilePath: path,
				Feature:  "protected-keys",
				Message:  fmt.Sprintf("duplicate key %q", k),
			}
		}
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ExpectedKeys == 0 {
		c.ExpectedKeys = DefaultExpectedKeys
	}
	if c.MaxValueSize == 0 {
		c.MaxValueSize = DefaultMaxValueSize
	}

	return &c, nil
}

type ErrorMissing struct {
	FilePath string
	Feature  string
}

func (e ErrorMissing) Error() string {
	var b strings.Builder
	if e.Feature == "" {
		b.Grow(len("missing ") + len(e.FilePath))
		b.WriteString("missing ")
		b.WriteString(e.FilePath)
		return b.String()
	}
	b.Grow(len("missing ") + len(e.Feature) + len(" in ") + len(e.FilePath))
	b.WriteString("missing ")
	b.WriteString(e.Feature)
	b.WriteString(" in ")
	b.WriteString(e.FilePath)
	return b.String()
}

type ErrorIllegal struct {
	FilePath string
	Feature  string
	Message  string
}

func (e ErrorIllegal) Error() string {
	var b strings.Builder
	b.Grow(len("illegal ") +
		len(e.Feature) +
		len(" in ") +
		len(e.FilePath) +
		len(": ") +
		len(e.Message))
	b.WriteString("illegal ")
	b.WriteString(e.Feature)
	b.WriteString(" in ")
	b.WriteString(e.FilePath)
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}
