package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"roaster/pkg/i18n"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const ConfigFileName = ".roaster.json"

// APIKeyEnv names the environment variable holding the generation credential.
// Its absence switches roasts to the canned rotation.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// GenerationConfig holds settings for the remote text-generation service.
type GenerationConfig struct {
	APIKey         string `json:"-"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	MaxTokens      int    `json:"max_tokens"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Enabled reports whether a credential is configured.
func (g GenerationConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// DataSourceConfig holds settings for live portfolio lookups. An empty RPCURL
// keeps the analyzer on the demo snapshot.
type DataSourceConfig struct {
	RPCURL            string  `json:"rpc_url"`
	PriceURL          string  `json:"price_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	PriceCacheMinutes int     `json:"price_cache_minutes"`
	SignatureLimit    int     `json:"signature_limit"`
}

func (d DataSourceConfig) Enabled() bool {
	return strings.TrimSpace(d.RPCURL) != ""
}

func (d DataSourceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// WalletConfig holds settings for the wallet bridge. An empty BridgeURL means
// connections and donations are simulated.
type WalletConfig struct {
	BridgeURL          string `json:"bridge_url"`
	ConnectDelayMillis int    `json:"connect_delay_ms"`
	TimeoutSeconds     int    `json:"timeout_seconds"`
}

func (w WalletConfig) ConnectDelay() time.Duration {
	return time.Duration(w.ConnectDelayMillis) * time.Millisecond
}

func (w WalletConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// DonationConfig holds the donation menu.
type DonationConfig struct {
	Recipient string            `json:"recipient"`
	Currency  string            `json:"currency"`
	Amounts   []decimal.Decimal `json:"amounts"`
}

// LogConfig holds logging settings. An empty File logs to stderr.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type ServerConfig struct {
	Port int `json:"port"`
}

// Config is the whole application configuration.
type Config struct {
	Language   string           `json:"language"`
	Generation GenerationConfig `json:"generation"`
	DataSource DataSourceConfig `json:"data_source"`
	Wallet     WalletConfig     `json:"wallet"`
	Donation   DonationConfig   `json:"donation"`
	Log        LogConfig        `json:"log"`
	Server     ServerConfig     `json:"server"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Language: i18n.Default,
		Generation: GenerationConfig{
			BaseURL:        "https://api.anthropic.com",
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      1000,
			TimeoutSeconds: 30,
		},
		DataSource: DataSourceConfig{
			PriceURL:          "https://api.dexscreener.com",
			RequestsPerSecond: 5,
			TimeoutSeconds:    15,
			PriceCacheMinutes: 10,
			SignatureLimit:    1000,
		},
		Wallet: WalletConfig{
			ConnectDelayMillis: 1000,
			TimeoutSeconds:     60,
		},
		Donation: DonationConfig{
			Recipient: "cryptoric89.skr",
			Currency:  "SOL",
			Amounts: []decimal.Decimal{
				decimal.RequireFromString("0.01"),
				decimal.RequireFromString("0.1"),
				decimal.RequireFromString("1"),
			},
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(os.TempDir(), "roaster.log"),
		},
		Server: ServerConfig{Port: 8080},
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

// LoadConfig decodes a config document over the defaults. Keys absent from
// the document keep their default value; out-of-range numbers are reset.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	cfg.Language = i18n.Normalize(cfg.Language)
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = def.Generation.BaseURL
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = def.Generation.Model
	}
	if cfg.Generation.MaxTokens <= 0 {
		cfg.Generation.MaxTokens = def.Generation.MaxTokens
	}
	if cfg.Generation.TimeoutSeconds <= 0 {
		cfg.Generation.TimeoutSeconds = def.Generation.TimeoutSeconds
	}
	if cfg.DataSource.PriceURL == "" {
		cfg.DataSource.PriceURL = def.DataSource.PriceURL
	}
	if cfg.DataSource.RequestsPerSecond <= 0 {
		cfg.DataSource.RequestsPerSecond = def.DataSource.RequestsPerSecond
	}
	if cfg.DataSource.TimeoutSeconds <= 0 {
		cfg.DataSource.TimeoutSeconds = def.DataSource.TimeoutSeconds
	}
	if cfg.DataSource.PriceCacheMinutes <= 0 {
		cfg.DataSource.PriceCacheMinutes = def.DataSource.PriceCacheMinutes
	}
	if cfg.DataSource.SignatureLimit <= 0 || cfg.DataSource.SignatureLimit > 1000 {
		cfg.DataSource.SignatureLimit = def.DataSource.SignatureLimit
	}
	if cfg.Wallet.ConnectDelayMillis < 0 {
		cfg.Wallet.ConnectDelayMillis = def.Wallet.ConnectDelayMillis
	}
	if cfg.Wallet.TimeoutSeconds <= 0 {
		cfg.Wallet.TimeoutSeconds = def.Wallet.TimeoutSeconds
	}
	if cfg.Donation.Recipient == "" {
		cfg.Donation.Recipient = def.Donation.Recipient
	}
	if cfg.Donation.Currency == "" {
		cfg.Donation.Currency = def.Donation.Currency
	}
	if len(cfg.Donation.Amounts) == 0 {
		cfg.Donation.Amounts = def.Donation.Amounts
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = def.Server.Port
	}
}

// Validate returns one message per structural problem in cfg.
func Validate(cfg Config) []string {
	var problems []string
	if !i18n.IsSupported(cfg.Language) {
		problems = append(problems, fmt.Sprintf("language %q is not supported (use one of %s)", cfg.Language, strings.Join(i18n.Supported(), ", ")))
	}
	for name, raw := range map[string]string{
		"generation.base_url":   cfg.Generation.BaseURL,
		"data_source.rpc_url":   cfg.DataSource.RPCURL,
		"data_source.price_url": cfg.DataSource.PriceURL,
		"wallet.bridge_url":     cfg.Wallet.BridgeURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("%s %q is not an absolute URL", name, raw))
		}
	}
	seen := make(map[string]bool)
	for i, amt := range cfg.Donation.Amounts {
		if !amt.IsPositive() {
			problems = append(problems, fmt.Sprintf("donation amount at index %d must be positive", i))
		}
		if seen[amt.String()] {
			problems = append(problems, fmt.Sprintf("donation amount %s is listed twice", amt.String()))
		}
		seen[amt.String()] = true
	}
	sort.Strings(problems)
	return problems
}

// LoadEnv reads KEY=value files into the process environment, skipping files
// that do not exist, and copies the generation credential into cfg.
func LoadEnv(cfg *Config, files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return fmt.Errorf("failed to load env files: %w", err)
		}
	}
	cfg.Generation.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	return nil
}

// NeedsRewrite reports whether saving cfg to path would change the file,
// comparing both as decoded documents. A missing file always needs writing.
func NeedsRewrite(path string, cfg Config) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	var onDisk map[string]interface{}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return false, err
	}
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return false, err
	}
	var want map[string]interface{}
	if err := json.Unmarshal(encoded, &want); err != nil {
		return false, err
	}
	return !reflect.DeepEqual(onDisk, want), nil
}

func SaveConfig(cfg Config, path string) error {
	if problems := Validate(cfg); len(problems) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(problems, "; "))
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("validation failed: encoded configuration is empty")
	}

	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}
