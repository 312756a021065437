package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the embedding provider. The model is served by
// an OpenAI-compatible endpoint; when it cannot be reached at startup the
// provider falls back to deterministic hash embeddings of FallbackDim.
type EmbedderConfig struct {
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	FallbackDim int    `yaml:"fallback_dim"`
}

// VectorStoreConfig locates the persistent index and the CSV fallback.
type VectorStoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	CSVPath    string `yaml:"csv_path"`
}

// OCRConfig configures the remote OCR bridge.
type OCRConfig struct {
	APIKeyEnv         string  `yaml:"api_key_env"`
	Engine            int     `yaml:"engine"` // 1 = fast, 2 = accurate
	Language          string  `yaml:"language"`
	DetectOrientation *bool   `yaml:"detect_orientation"` // on unless explicitly disabled
	TimeoutSecs       float64 `yaml:"timeout_secs"`
	Retries           int     `yaml:"retries"`
	RetryDelaySecs    float64 `yaml:"retry_delay_secs"`
	MaxElapsedSecs    float64 `yaml:"max_elapsed_secs"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	OCR         OCRConfig         `yaml:"ocr"`
	Search      SearchConfig      `yaml:"search"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/videoqa/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "videoqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "EMBEDDINGS_API_KEY"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.FallbackDim == 0 {
		cfg.Embedder.FallbackDim = 384
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "./chroma_db"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "video_chunks"
	}
	if cfg.VectorStore.CSVPath == "" {
		cfg.VectorStore.CSVPath = "data/chunks_with_embeddings.csv"
	}
	if cfg.OCR.APIKeyEnv == "" {
		cfg.OCR.APIKeyEnv = "OCR_SPACE_API_KEY"
	}
	if cfg.OCR.Engine == 0 {
		cfg.OCR.Engine = 2
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	if cfg.OCR.DetectOrientation == nil {
		on := true
		cfg.OCR.DetectOrientation = &on
	}
	if cfg.OCR.TimeoutSecs == 0 {
		cfg.OCR.TimeoutSecs = 20
	}
	if cfg.OCR.Retries == 0 {
		cfg.OCR.Retries = 2
	}
	if cfg.OCR.RetryDelaySecs == 0 {
		cfg.OCR.RetryDelaySecs = 1.5
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
}
