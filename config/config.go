package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings holds all runtime configuration. It is persisted as JSON in the
// storage directory and can be edited while the server is stopped.
type Settings struct {
	ListenAddr string `json:"listenAddr"`
	StorageDir string `json:"storageDir"`
	LogFile    string `json:"logFile,omitempty"`

	Recommender RecommenderSettings `json:"recommender"`
	TMDB        TMDBSettings        `json:"tmdb"`
	YouTube     YouTubeSettings     `json:"youtube"`
}

// RecommenderSettings points at the recommendation backend. The chat
// endpoint lives on the same service.
type RecommenderSettings struct {
	BaseURL string `json:"baseUrl"`
}

// TMDBSettings holds the movie database credential and language.
type TMDBSettings struct {
	APIKey        string `json:"apiKey"`
	Language      string `json:"language"`
	CacheTTLHours int    `json:"cacheTtlHours"`
}

// YouTubeSettings holds the trailer search credential.
type YouTubeSettings struct {
	APIKey string `json:"apiKey"`
}

// DefaultSettings returns settings seeded from the environment. API keys
// have no sane default and must come from the environment or the settings
// file.
func DefaultSettings() Settings {
	storageDir := os.Getenv("CINEPICK_STORAGE_DIR")
	if storageDir == "" {
		storageDir = "./data"
	}
	recommenderURL := os.Getenv("CINEPICK_RECOMMENDER_URL")
	if recommenderURL == "" {
		recommenderURL = "http://127.0.0.1:8000"
	}
	return Settings{
		ListenAddr: ":8090",
		StorageDir: storageDir,
		Recommender: RecommenderSettings{
			BaseURL: recommenderURL,
		},
		TMDB: TMDBSettings{
			APIKey:        os.Getenv("CINEPICK_TMDB_API_KEY"),
			Language:      "en-US",
			CacheTTLHours: 24,
		},
		YouTube: YouTubeSettings{
			APIKey: os.Getenv("CINEPICK_YOUTUBE_API_KEY"),
		},
	}
}

// Manager loads and saves settings with an in-memory cache. Load is cheap
// after the first call; Save rewrites the file atomically.
type Manager struct {
	mu     sync.RWMutex
	path   string
	loaded bool
	cached Settings
}

// NewManager creates a manager for the settings file at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load returns the current settings. A missing file yields the defaults,
// which are written back so the file exists for editing.
func (m *Manager) Load() (Settings, error) {
	m.mu.RLock()
	if m.loaded {
		s := m.cached
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return m.cached, nil
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		s := DefaultSettings()
		if err := m.saveLocked(s); err != nil {
			return Settings{}, err
		}
		m.cached = s
		m.loaded = true
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	m.cached = s
	m.loaded = true
	return s, nil
}

// Save persists new settings and updates the cache.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveLocked(s); err != nil {
		return err
	}
	m.cached = s
	m.loaded = true
	return nil
}

func (m *Manager) saveLocked(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, m.path)
}
