package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	SettingsEnvVar    = "SCREEN_TRANSLATE_SETTINGS"
	EnvFileEnvVar     = "SCREEN_TRANSLATE_ENV"

	EngineBaidu      = "baidu"
	EngineTencent    = "tencent"
	EngineOpenRouter = "openrouter"

	OCREngineLLM       = "llm"
	OCREngineTesseract = "tesseract"

	ThemeDark  = "dark"
	ThemeLight = "light"

	appDirName       = "ScreenTranslate"
	settingsFileName = "settings.toml"
)

type LoadOptions struct {
	SettingsPathOverride string
	APIKeyPathOverride   string
}

type BaiduCredentials struct {
	AppID     string `toml:"app_id"`
	SecretKey string `toml:"secret_key"`
}

type TencentCredentials struct {
	SecretID  string `toml:"secret_id"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	ProjectID int64  `toml:"project_id"`
}

type OpenRouterCredentials struct {
	APIKey    string   `toml:"api_key"`
	Model     string   `toml:"model"`
	Providers []string `toml:"providers"`
}

// Config is the read/write settings object. The pipeline only reads it.
type Config struct {
	Engine          string                `toml:"engine"`
	Baidu           BaiduCredentials      `toml:"baidu"`
	Tencent         TencentCredentials    `toml:"tencent"`
	OpenRouter      OpenRouterCredentials `toml:"openrouter"`
	Trigger         TriggerMode           `toml:"trigger"`
	SourceLanguage  string                `toml:"source_language"`
	TargetLanguage  string                `toml:"target_language"`
	Theme           string                `toml:"theme"`
	OCREngine       string                `toml:"ocr_engine"`
	OCRLanguage     string                `toml:"ocr_language"`
	OCRDeadlineSec  int                   `toml:"ocr_deadline_sec"`
	CopyToClipboard bool                  `toml:"copy_to_clipboard"`
	HistoryDB       string                `toml:"history_db"`

	EnableFileLogging bool   `toml:"enable_file_logging"`
	SettingsPath      string `toml:"-"`
	APIKeyPath        string `toml:"-"`
}

// Defaults returns the configuration used when no settings file exists.
func Defaults() *Config {
	return &Config{
		Engine:         EngineBaidu,
		Trigger:        MiddleMouse,
		SourceLanguage: "auto",
		TargetLanguage: "zh",
		Theme:          ThemeDark,
		OCREngine:      OCREngineTesseract,
		OCRLanguage:    "chi_sim+eng",
		OCRDeadlineSec: 20,
		Tencent:        TencentCredentials{Region: "ap-guangzhou"},
	}
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order (later wins):
	// 1) built-in defaults
	// 2) settings.toml (SCREEN_TRANSLATE_SETTINGS or user config dir)
	// 3) .env next to the executable, or SCREEN_TRANSLATE_ENV, then process env
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := Defaults()
	cfg.SettingsPath = resolveSettingsPath(opts)
	if err := readSettingsFile(cfg.SettingsPath, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.APIKeyPath = resolveAPIKeyPath(opts)
	if cfg.OpenRouter.APIKey == "" {
		cfg.OpenRouter.APIKey = resolveAPIKey(cfg.APIKeyPath)
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = filepath.Join(filepath.Dir(cfg.SettingsPath), "history.db")
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the parent directory.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.SettingsPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("make settings dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}

// Validate reports missing credentials for the selected engine and bad values.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Engine) {
	case EngineBaidu:
		if c.Baidu.AppID == "" || c.Baidu.SecretKey == "" {
			errs = append(errs, errors.New("baidu app_id and secret_key are required"))
		}
	case EngineTencent:
		if c.Tencent.SecretID == "" || c.Tencent.SecretKey == "" {
			errs = append(errs, errors.New("tencent secret_id and secret_key are required"))
		}
	case EngineOpenRouter:
		if c.OpenRouter.APIKey == "" {
			errs = append(errs, fmt.Errorf("OPENROUTER_API_KEY is required. Checked key file %s and OPENROUTER_API_KEY env var", c.APIKeyPath))
		}
		if c.OpenRouter.Model == "" {
			errs = append(errs, errors.New("openrouter model is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown translation engine %q", c.Engine))
	}
	switch strings.ToLower(c.OCREngine) {
	case OCREngineLLM:
		if c.OpenRouter.APIKey == "" || c.OpenRouter.Model == "" {
			errs = append(errs, errors.New("llm OCR needs an OpenRouter api key and model"))
		}
	case OCREngineTesseract:
	default:
		errs = append(errs, fmt.Errorf("unknown OCR engine %q", c.OCREngine))
	}
	return errors.Join(errs...)
}

func readSettingsFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse settings %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Engine, "TRANSLATE_ENGINE", strings.ToLower)
	setString(&cfg.Baidu.AppID, "BAIDU_APP_ID", nil)
	setString(&cfg.Baidu.SecretKey, "BAIDU_SECRET_KEY", nil)
	setString(&cfg.Tencent.SecretID, "TENCENT_SECRET_ID", nil)
	setString(&cfg.Tencent.SecretKey, "TENCENT_SECRET_KEY", nil)
	setString(&cfg.Tencent.Region, "TENCENT_REGION", nil)
	setString(&cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY", nil)
	setString(&cfg.OpenRouter.Model, "MODEL", nil)
	setString(&cfg.SourceLanguage, "SOURCE_LANGUAGE", nil)
	setString(&cfg.TargetLanguage, "TARGET_LANGUAGE", nil)
	setString(&cfg.Theme, "THEME", strings.ToLower)
	setString(&cfg.OCREngine, "OCR_ENGINE", strings.ToLower)
	setString(&cfg.OCRLanguage, "OCR_LANGUAGE", nil)
	setString(&cfg.HistoryDB, "HISTORY_DB", nil)

	if providersStr := os.Getenv("PROVIDERS"); providersStr != "" {
		var providers []string
		for _, provider := range strings.Split(providersStr, ",") {
			if trimmed := strings.TrimSpace(provider); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
		cfg.OpenRouter.Providers = providers
	}
	if v := os.Getenv("TRIGGER_MODE"); v != "" {
		if m, err := ParseTriggerMode(v); err == nil {
			cfg.Trigger = m
		} else {
			log.Printf("Config: %v; keeping %s", err, cfg.Trigger)
		}
	}
	if v := os.Getenv("OCR_DEADLINE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OCRDeadlineSec = n
		}
	}
	if v := os.Getenv("ENABLE_FILE_LOGGING"); v != "" {
		cfg.EnableFileLogging = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("COPY_TO_CLIPBOARD"); v != "" {
		cfg.CopyToClipboard = strings.ToLower(v) == "true"
	}
}

func setString(dst *string, key string, transform func(string) string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if transform != nil {
		v = transform(v)
	}
	*dst = v
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveSettingsPath(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.SettingsPathOverride); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(SettingsEnvVar)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return settingsFileName
	}
	return filepath.Join(dir, appDirName, settingsFileName)
}

func resolveAPIKeyPath(opts LoadOptions) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}
	return ""
}
