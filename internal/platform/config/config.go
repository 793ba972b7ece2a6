package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FileName = "notebook.yaml"

	TransportJSONRPC = "jsonrpc"
	TransportGRPC    = "grpc"

	BackendXML    = "xml"
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"

	LookupWikipedia = "wikipedia"
	LookupPlugin    = "plugin"
	LookupStatic    = "static"

	PolicyOverwrite = "overwrite"
	PolicySkip      = "skip"
)

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	Transport   string        `yaml:"transport"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

type StoreConfig struct {
	Backend         string `yaml:"backend"`
	Path            string `yaml:"path"`
	Policy          string `yaml:"policy"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type LookupConfig struct {
	Backend       string            `yaml:"backend"`
	Endpoint      string            `yaml:"endpoint"`
	ArticleBase   string            `yaml:"article_base"`
	UserAgent     string            `yaml:"user_agent"`
	Timeout       time.Duration     `yaml:"timeout"`
	RatePerSecond float64           `yaml:"rate_per_second"`
	Burst         int               `yaml:"burst"`
	PluginBinary  string            `yaml:"plugin_binary"`
	Static        map[string]string `yaml:"static,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Config struct {
	DataDir    string `yaml:"-"`
	ConfigPath string `yaml:"-"`

	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Lookup LookupConfig `yaml:"lookup"`
	Log    LogConfig    `yaml:"log"`
}

// New returns the default configuration rooted at dataDir.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Config{DataDir: dataDir}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// Load reads path (or <dataDir>/notebook.yaml when path is empty), applies NOTEBOOK_* environment
// overrides and fills defaults. A missing file yields the defaults.
func Load(path, dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(dataDir, FileName)
	}
	cfg := Config{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		cfg.ConfigPath = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.DataDir = dataDir
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportJSONRPC, TransportGRPC:
	default:
		return fmt.Errorf("unsupported transport %q", c.Server.Transport)
	}
	switch c.Store.Backend {
	case BackendXML, BackendYAML, BackendSQLite:
	case BackendMongo:
		if strings.TrimSpace(c.Store.MongoURI) == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}
	switch c.Store.Policy {
	case PolicyOverwrite, PolicySkip:
	default:
		return fmt.Errorf("unsupported upsert policy %q", c.Store.Policy)
	}
	switch c.Lookup.Backend {
	case LookupWikipedia, LookupStatic:
	case LookupPlugin:
		if strings.TrimSpace(c.Lookup.PluginBinary) == "" {
			return fmt.Errorf("lookup.plugin_binary is required for the plugin backend")
		}
	default:
		return fmt.Errorf("unsupported lookup backend %q", c.Lookup.Backend)
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup.timeout must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Server.Transport == "" {
		c.Server.Transport = TransportJSONRPC
	}
	if c.Server.CallTimeout == 0 {
		c.Server.CallTimeout = 10 * time.Second
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendXML
	}
	if c.Store.Policy == "" {
		c.Store.Policy = PolicyOverwrite
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStoreFile(c.Store.Backend)
	}
	if c.Store.Backend != BackendMongo && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(c.DataDir, c.Store.Path)
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "notebook"
	}
	if c.Store.MongoCollection == "" {
		c.Store.MongoCollection = "topics"
	}
	if c.Lookup.Backend == "" {
		c.Lookup.Backend = LookupWikipedia
	}
	if c.Lookup.Endpoint == "" {
		c.Lookup.Endpoint = "https://en.wikipedia.org/w/api.php"
	}
	if c.Lookup.ArticleBase == "" {
		c.Lookup.ArticleBase = "https://en.wikipedia.org/"
	}
	if c.Lookup.UserAgent == "" {
		c.Lookup.UserAgent = "notebook/1.0 (topic link notebook)"
	}
	if c.Lookup.Timeout == 0 {
		c.Lookup.Timeout = 10 * time.Second
	}
	if c.Lookup.RatePerSecond == 0 {
		c.Lookup.RatePerSecond = 5
	}
	if c.Lookup.Burst == 0 {
		c.Lookup.Burst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("NOTEBOOK_ADDR", &c.Server.Addr)
	set("NOTEBOOK_TRANSPORT", &c.Server.Transport)
	set("NOTEBOOK_STORE_BACKEND", &c.Store.Backend)
	set("NOTEBOOK_STORE_PATH", &c.Store.Path)
	set("NOTEBOOK_POLICY", &c.Store.Policy)
	set("NOTEBOOK_MONGO_URI", &c.Store.MongoURI)
	set("NOTEBOOK_LOOKUP_BACKEND", &c.Lookup.Backend)
	set("NOTEBOOK_PLUGIN_BINARY", &c.Lookup.PluginBinary)
	set("NOTEBOOK_LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("NOTEBOOK_LOOKUP_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("decode NOTEBOOK_LOOKUP_TIMEOUT: %w", err)
		}
		c.Lookup.Timeout = d
	}
	return nil
}

func defaultStoreFile(backend string) string {
	switch backend {
	case BackendYAML:
		return "db.yaml"
	case BackendSQLite:
		return "notebook.db"
	default:
		return "db.xml"
	}
}
