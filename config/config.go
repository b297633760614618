package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docfind.
type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	DataDir   string          `yaml:"data_dir"`
}

// ScanConfig controls folder scanning.
type ScanConfig struct {
	Extensions []string `yaml:"extensions"`
	// Excludes are doublestar patterns matched against paths relative to
	// the scan root.
	Excludes []string `yaml:"excludes"`
	// DenyNames are directory basenames pruned at visit time.
	DenyNames []string `yaml:"deny_names"`
	// SystemPrefixes are absolute path prefixes (case-insensitive) that
	// are never scanned and never accepted as a scan root.
	SystemPrefixes []string `yaml:"system_prefixes"`
	// Workers bounds the extraction pool. 0 means min(32, 4×CPU):
	// extraction is I/O-bound, so the pool runs wider than the core count.
	Workers int `yaml:"workers"`
	// MaxTextLen caps extracted text per document, in characters.
	MaxTextLen int `yaml:"max_text_len"`
}

// ChunkingConfig controls the window chunker, in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig selects the embedding backend. The model is explicit
// configuration validated at startup; there is no fallback chain.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "ollama", "openai", "mock"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// IndexConfig controls the vector index. The tier thresholds pick the
// search strategy by corpus size: brute-force up to FlatMaxVectors,
// an HNSW graph up to GraphMaxVectors, an IVF clustered index above.
type IndexConfig struct {
	FlatMaxVectors  int `yaml:"flat_max_vectors"`
	GraphMaxVectors int `yaml:"graph_max_vectors"`
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEfSearch    int `yaml:"hnsw_ef_search"`
	IVFNProbe       int `yaml:"ivf_nprobe"`
}

// SearchConfig controls hybrid ranking.
type SearchConfig struct {
	TopK          int     `yaml:"top_k"`
	FilenameBoost float64 `yaml:"filename_boost"`
	ContentBoost  float64 `yaml:"content_boost"`
	Rerank        bool    `yaml:"rerank"`
	RerankBase    float64 `yaml:"rerank_base_weight"`
	RerankVector  float64 `yaml:"rerank_vector_weight"`
	CacheSize     int     `yaml:"cache_size"`
	CacheTTLSecs  int     `yaml:"cache_ttl_secs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extensions: []string{".pdf", ".docx", ".txt"},
			Excludes:   []string{"**/*.min.js"},
			DenyNames: []string{
				"node_modules", "site-packages", "dist-info", "__pycache__",
				"venv", "env", "libs", "include", "scripts", "bin", "obj",
				"vendor", "dist", "build",
			},
			SystemPrefixes: []string{
				`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`,
				`C:\System32`, `C:\ProgramData`, `C:\Users\Default`,
				`C:\Boot`, `C:\Recovery`,
				"/proc", "/sys", "/dev", "/boot", "/etc",
			},
			Workers:    0,
			MaxTextLen: 100000,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 100,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			BaseURL:   "",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 0, // resolved from the model by the factory
			BatchSize: 100,
		},
		Index: IndexConfig{
			FlatMaxVectors:  1000,
			GraphMaxVectors: 10000,
			HNSWM:           16,
			HNSWEfSearch:    64,
			IVFNProbe:       8,
		},
		Search: SearchConfig{
			TopK:          10,
			FilenameBoost: 0.25,
			ContentBoost:  0.15,
			Rerank:        true,
			RerankBase:    0.6,
			RerankVector:  0.4,
			CacheSize:     100,
			CacheTTLSecs:  300,
		},
		DataDir: defaultDataDir(),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docfind"
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "docfind")
	}
	return filepath.Join(home, ".docfind")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; absent fields keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for docfind.yaml in dir, then in the data directory.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docfind.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(defaultDataDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path of the persisted vector index.
func (c *Config) IndexDBPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// EnsureDataDir creates the data directory if needed.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
