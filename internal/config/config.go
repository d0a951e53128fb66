package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"standings-backend/internal/store"
)

// Config holds every runtime setting. Values come from an optional YAML
// file, then environment variables override them.
type Config struct {
	Port          int    `yaml:"port"`
	CORSOrigin    string `yaml:"corsOrigin"`
	DevMode       bool   `yaml:"devMode"`
	LogLevel      string `yaml:"logLevel"`
	Username      string `yaml:"username"`
	SessionSecret string `yaml:"sessionSecret"`

	Store StoreConfig `yaml:"store"`
	Auth  AuthConfig  `yaml:"auth"`

	Narrative NarrativeConfig `yaml:"narrative"`
}

type StoreConfig struct {
	Backend             string `yaml:"backend"`
	DataDir             string `yaml:"dataDir"`
	SQLitePath          string `yaml:"sqlitePath"`
	RedisURL            string `yaml:"redisUrl"`
	GCPProjectID        string `yaml:"gcpProjectId"`
	FirestoreDatabase   string `yaml:"firestoreDatabase"`
	FirestoreCollection string `yaml:"firestoreCollection"`
	CredentialsFile     string `yaml:"credentialsFile"`
}

type AuthConfig struct {
	ViewerSecret       string        `yaml:"viewerSecret"`
	ViewerSecretHash   string        `yaml:"viewerSecretBcrypt"`
	OperatorSecret     string        `yaml:"operatorSecret"`
	OperatorSecretHash string        `yaml:"operatorSecretBcrypt"`
	LoginDelay         time.Duration `yaml:"loginDelay"`
}

type NarrativeConfig struct {
	APIKey          string        `yaml:"apiKey"`
	Model           string        `yaml:"model"`
	SimulationDelay time.Duration `yaml:"simulationDelay"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:       8080,
		CORSOrigin: "http://localhost:5173",
		LogLevel:   "info",
		Username:   "ADMIN",
		Store: StoreConfig{
			Backend:             "memory",
			DataDir:             "./data",
			SQLitePath:          "./data/standings.db",
			RedisURL:            "redis://localhost:6379/0",
			FirestoreCollection: "esports_data",
		},
		Auth: AuthConfig{
			LoginDelay: 800 * time.Millisecond,
		},
		Narrative: NarrativeConfig{
			SimulationDelay: 1500 * time.Millisecond,
		},
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if
// set), then applies environment overrides and validates the result.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadStore reads configuration the same way as Load but only validates
// what offline tools touching the store need: no secrets are required.
func LoadStore() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func read() (Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		c.Port = port
	}
	setString(&c.CORSOrigin, "CORS_ORIGIN")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Username, "APP_USERNAME")
	setString(&c.SessionSecret, "SESSION_SECRET")
	if v := os.Getenv("DEV_MODE"); v != "" {
		c.DevMode = v == "true"
	}

	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.DataDir, "DATA_DIR")
	setString(&c.Store.SQLitePath, "SQLITE_PATH")
	setString(&c.Store.RedisURL, "REDIS_URL")
	setString(&c.Store.GCPProjectID, "GCP_PROJECT_ID")
	setString(&c.Store.FirestoreDatabase, "FIRESTORE_DATABASE")
	setString(&c.Store.FirestoreCollection, "FIRESTORE_COLLECTION")
	setString(&c.Store.CredentialsFile, "FIRESTORE_CREDENTIALS_FILE")

	setString(&c.Auth.ViewerSecret, "VIEWER_SECRET")
	setString(&c.Auth.ViewerSecretHash, "VIEWER_SECRET_BCRYPT")
	setString(&c.Auth.OperatorSecret, "OPERATOR_SECRET")
	setString(&c.Auth.OperatorSecretHash, "OPERATOR_SECRET_BCRYPT")
	if err := setDuration(&c.Auth.LoginDelay, "LOGIN_DELAY"); err != nil {
		return err
	}

	// GEMINI_API_KEY wins over the generic API_KEY
	setString(&c.Narrative.APIKey, "API_KEY")
	setString(&c.Narrative.APIKey, "GEMINI_API_KEY")
	setString(&c.Narrative.Model, "NARRATIVE_MODEL")
	return setDuration(&c.Narrative.SimulationDelay, "SIMULATION_DELAY")
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if !c.DevMode && c.Auth.ViewerSecret == "" && c.Auth.ViewerSecretHash == "" {
		return errors.New("VIEWER_SECRET required (or VIEWER_SECRET_BCRYPT, or DEV_MODE=true)")
	}
	if c.Auth.OperatorSecret == "" && c.Auth.OperatorSecretHash == "" {
		return errors.New("OPERATOR_SECRET required (or OPERATOR_SECRET_BCRYPT)")
	}
	if c.SessionSecret == "" && !c.DevMode {
		return errors.New("SESSION_SECRET required")
	}
	return nil
}

// ValidateStore checks the identity and backend selection.
func (c *Config) ValidateStore() error {
	if strings.TrimSpace(c.Username) == "" {
		return errors.New("APP_USERNAME must not be empty")
	}
	switch c.Store.Backend {
	case "memory", "file", "sqlite", "redis", "firestore":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	return nil
}

// StoreOptions maps the store section onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:             c.Store.Backend,
		DataDir:             c.Store.DataDir,
		SQLitePath:          c.Store.SQLitePath,
		RedisURL:            c.Store.RedisURL,
		GCPProjectID:        c.Store.GCPProjectID,
		FirestoreDatabase:   c.Store.FirestoreDatabase,
		FirestoreCollection: c.Store.FirestoreCollection,
		CredentialsFile:     c.Store.CredentialsFile,
	}
}
