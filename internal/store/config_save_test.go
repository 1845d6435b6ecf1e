package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("SUPPORTSYNC_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&GlobalConfig{APIBaseURL: "http://seed"}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 32
	errCh := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.APIBaseURL = fmt.Sprintf("http://host-%d", i)
			cfg.PageSize = i + 1
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}
	if t.Failed() {
		return
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config.json: %v", err)
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("config.json corrupted/unparseable: %v\nraw:\n%s", err, string(raw))
	}

	ents, err := os.ReadDir(cfgDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, "config.json.") && strings.HasSuffix(name, ".tmp") {
			t.Fatalf("leftover temp file: %s", name)
		}
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("expected config.json.bak after overwrites: %v", err)
	}
	var bakCfg GlobalConfig
	if err := json.Unmarshal(bak, &bakCfg); err != nil {
		t.Fatalf("config.json.bak corrupted/unparseable: %v\nraw:\n%s", err, string(bak))
	}
}

func TestLoadConfig_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("SUPPORTSYNC_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIBaseURL != "" || cfg.EffectivePageSize() != DefaultPageSize {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestConfigGetSet(t *testing.T) {
	cfg := &GlobalConfig{}
	if err := cfg.Set("apiBaseUrl", "https://help.example.com/"); err != nil {
		t.Fatalf("Set apiBaseUrl: %v", err)
	}
	if v, _ := cfg.Get("apiBaseUrl"); v != "https://help.example.com" {
		t.Fatalf("apiBaseUrl = %q", v)
	}
	if err := cfg.Set("apiBaseUrl", "ftp://nope"); err == nil {
		t.Fatalf("expected scheme error")
	}
	if err := cfg.Set("pageSize", "500"); err == nil {
		t.Fatalf("expected range error")
	}
	if err := cfg.Set("pageSize", "25"); err != nil || cfg.EffectivePageSize() != 25 {
		t.Fatalf("pageSize = %d, %v", cfg.EffectivePageSize(), err)
	}
	if err := cfg.Set("tui.profile", "mono"); err != nil {
		t.Fatalf("Set tui.profile: %v", err)
	}
	if v, _ := cfg.Get("tui.profile"); v != "mono" {
		t.Fatalf("tui.profile = %q", v)
	}
	if _, err := cfg.Get("nope"); err == nil || !strings.Contains(err.Error(), "apiBaseUrl") {
		t.Fatalf("expected unknown key error listing keys, got %v", err)
	}
}
