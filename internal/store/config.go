package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type GlobalConfig struct {
	// APIBaseURL is used when neither --api-url nor SUPPORTSYNC_API_URL is set.
	APIBaseURL string `json:"apiBaseUrl,omitempty"`

	// PageSize is the default list limit for CLI and TUI list views.
	PageSize int `json:"pageSize,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Profile is the appearance profile id ("default", "mono").
	Profile string `json:"profile,omitempty"`
}

const DefaultPageSize = 10

func (c *GlobalConfig) EffectivePageSize() int {
	if c == nil || c.PageSize <= 0 {
		return DefaultPageSize
	}
	if c.PageSize > 100 {
		return 100
	}
	return c.PageSize
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.supportsync).
	if v := strings.TrimSpace(os.Getenv("SUPPORTSYNC_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".supportsync"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Default returns the store rooted at the config dir.
func Default() (Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep a copy of the previous config; failures here never block the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}

	// Unique temp names so the CLI and a running TUI never clobber each other.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// ConfigKeys lists the keys understood by Get/Set.
func ConfigKeys() []string {
	return []string{"apiBaseUrl", "pageSize", "tui.profile"}
}

func (c *GlobalConfig) Get(key string) (string, error) {
	switch key {
	case "apiBaseUrl":
		return c.APIBaseURL, nil
	case "pageSize":
		if c.PageSize == 0 {
			return "", nil
		}
		return strconv.Itoa(c.PageSize), nil
	case "tui.profile":
		if c.TUI == nil {
			return "", nil
		}
		return c.TUI.Profile, nil
	default:
		return "", fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
}

// Set assigns key; an empty value resets it to the default.
func (c *GlobalConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "apiBaseUrl":
		if value != "" && !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("apiBaseUrl must start with http:// or https://")
		}
		c.APIBaseURL = strings.TrimRight(value, "/")
	case "pageSize":
		if value == "" {
			c.PageSize = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 100 {
			return fmt.Errorf("pageSize must be between 1 and 100")
		}
		c.PageSize = n
	case "tui.profile":
		if c.TUI == nil {
			c.TUI = &TUIConfig{}
		}
		c.TUI.Profile = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return nil
}
