package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RemoteFeed is a feed archive downloaded before combining
type RemoteFeed struct {
	Name    string            `yaml:"name" validate:"required,excludesall=/\\"`
	URL     string            `yaml:"url" validate:"required,url"`
	Headers map[string]string `yaml:"headers"`
}

// CacheConfig controls caching of downloaded archives. Without a
// directory, archives are cached in memory for the duration of the
// run only.
type CacheConfig struct {
	Dir        string `yaml:"dir"`
	TTLMinutes int    `yaml:"ttl_minutes" validate:"gte=0"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
}

// Config is the root configuration structure
type Config struct {
	GTFSDir     string       `yaml:"gtfs_dir" validate:"required_without=Feeds"`
	OutputDir   string       `yaml:"output_dir" validate:"required"`
	ServiceDate int          `yaml:"service_date" validate:"required,gte=10000101,lte=99991231"`
	Workers     int          `yaml:"workers" validate:"gte=0,lte=64"`
	SQLite      string       `yaml:"sqlite"`
	Postgres    string       `yaml:"postgres"`
	Cache       CacheConfig  `yaml:"cache"`
	Feeds       []RemoteFeed `yaml:"feeds" validate:"dive"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// Reads the YAML file at path. An empty path yields an empty
// configuration. Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err = dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Loads .env files into the environment. Variables already set take
// precedence, and missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Overrides settings with COMBINE_* environment variables.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"COMBINE_GTFS_DIR":   &c.GTFSDir,
		"COMBINE_OUTPUT_DIR": &c.OutputDir,
		"COMBINE_SQLITE":     &c.SQLite,
		"COMBINE_POSTGRES":   &c.Postgres,
		"COMBINE_CACHE_DIR":  &c.Cache.Dir,
	}
	for name, p := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*p = v
		}
	}

	ints := map[string]*int{
		"COMBINE_SERVICE_DATE": &c.ServiceDate,
		"COMBINE_WORKERS":      &c.Workers,
	}
	for name, p := range ints {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*p = n
	}

	return nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	names := map[string]bool{}
	for _, f := range c.Feeds {
		if names[f.Name] {
			return fmt.Errorf("invalid config: duplicate feed name %q", f.Name)
		}
		names[f.Name] = true
	}

	return nil
}
