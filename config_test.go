package netkit

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigValid(t *testing.T) {
	reg, err := LoadConfig("testdata/policies.json")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	want := []string{"aggressive", "default", "none", "steady", "tmdb"}
	if got := reg.Names(); !slices.Equal(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	tmdb, ok := reg.Lookup("tmdb")
	if !ok {
		t.Fatal("Lookup(tmdb) ok = false")
	}

	wantDelays := []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		time.Second,
	}
	if got := tmdb.Schedule(); !slices.Equal(got, wantDelays) {
		t.Fatalf("tmdb Schedule() = %v, want %v", got, wantDelays)
	}

	steady, _ := reg.Lookup("steady")
	if got := steady.Schedule(); !slices.Equal(got, []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}) {
		t.Fatalf("steady Schedule() = %v", got)
	}
	if !slices.Equal(steady.RetryableStatusCodes(), []int{503}) {
		t.Fatalf("steady codes = %v", steady.RetryableStatusCodes())
	}
}

func TestLoadConfigOverridesPreset(t *testing.T) {
	reg, err := LoadConfig("testdata/policies.json")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	p, _ := reg.Lookup(PresetDefault)
	if p.MaxRetries() != 1 {
		t.Fatalf("default MaxRetries() = %d, want 1", p.MaxRetries())
	}
	if p.BaseDelay() != DefaultBaseDelay {
		t.Fatalf("default BaseDelay() = %v, want unchanged", p.BaseDelay())
	}

	if DefaultRetry().MaxRetries() != DefaultMaxRetries {
		t.Fatal("loading a file changed the preset constructor")
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("testdata/nonexistent.json")
	if err == nil || !strings.Contains(err.Error(), "netkit: read config") {
		t.Fatalf("error = %v, want read config error", err)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", `{not valid json}`, "netkit: parse config"},
		{"negative retries", `{"policies":{"p":{"max_retries":-1}}}`, "max_retries: must not be negative"},
		{"bad delay", `{"policies":{"p":{"base_delay":"soon"}}}`, "base_delay"},
		{"negative delay", `{"policies":{"p":{"max_delay":"-1s"}}}`, "max_delay: must not be negative"},
		{"unknown strategy", `{"policies":{"p":{"strategy":"fibonacci"}}}`, "unknown strategy"},
		{"linear without increment", `{"policies":{"p":{"strategy":"linear"}}}`, "linear requires increment"},
		{"exponential without multiplier", `{"policies":{"p":{"strategy":"exponential"}}}`, "exponential requires multiplier"},
		{"zero multiplier", `{"policies":{"p":{"strategy":"exponential","multiplier":0}}}`, "multiplier must be positive"},
		{"bad status", `{"policies":{"p":{"retryable_status_codes":[42]}}}`, "invalid status 42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policies.json")
			writeTestFile(t, path, tt.content)

			reg, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("LoadConfig() = %v, want error", reg.Names())
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestBuildOptionsEmptyKeepsDefaults(t *testing.T) {
	opts, err := BuildOptions(&PolicyConfig{})
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	p := NewRetryPolicy(opts...)
	if p.MaxRetries() != DefaultMaxRetries || p.BaseDelay() != DefaultBaseDelay {
		t.Fatalf("policy = %d retries, %v base", p.MaxRetries(), p.BaseDelay())
	}
}

func TestBuildOptionsConstant(t *testing.T) {
	strategy := StrategyConstant
	retries := 0

	opts, err := BuildOptions(&PolicyConfig{Strategy: &strategy, MaxRetries: &retries})
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	p := NewRetryPolicy(opts...)
	if p.Strategy() != ConstantBackoff() || p.MaxRetries() != 0 {
		t.Fatalf("policy = %v, %d", p.Strategy(), p.MaxRetries())
	}
}

func TestLoadCacheConfig(t *testing.T) {
	cc, err := LoadCacheConfig("testdata/caches.json", "tmdb")
	if err != nil {
		t.Fatalf("LoadCacheConfig() error = %v", err)
	}

	if cc.TTL != 5*time.Minute || cc.MaxSize != 1000 {
		t.Fatalf("config = %+v", cc)
	}

	shared, err := LoadCacheConfig("testdata/caches.json", "shared")
	if err != nil {
		t.Fatalf("LoadCacheConfig(shared) error = %v", err)
	}

	if shared.Options["addr"] != "localhost:6379" {
		t.Fatalf("addr = %v", shared.Options["addr"])
	}
	if shared.Options["db"] != float64(2) {
		t.Fatalf("db = %v (%T)", shared.Options["db"], shared.Options["db"])
	}
}

func TestLoadCacheConfigErrors(t *testing.T) {
	if _, err := LoadCacheConfig("testdata/caches.json", "missing"); err == nil ||
		!strings.Contains(err.Error(), `cache "missing" not found`) {
		t.Fatalf("error = %v, want not found", err)
	}

	if _, err := LoadCacheConfig("testdata/nope.json", "tmdb"); err == nil ||
		!strings.Contains(err.Error(), "netkit: read cache config") {
		t.Fatalf("error = %v, want read error", err)
	}

	path := filepath.Join(t.TempDir(), "caches.json")

	writeTestFile(t, path, `{"caches":{"c":{"ttl":"forever"}}}`)

	if _, err := LoadCacheConfig(path, "c"); err == nil || !strings.Contains(err.Error(), "ttl") {
		t.Fatalf("error = %v, want ttl error", err)
	}

	writeTestFile(t, path, `[`)

	if _, err := LoadCacheConfig(path, "c"); err == nil ||
		!strings.Contains(err.Error(), "netkit: parse cache config") {
		t.Fatalf("error = %v, want parse error", err)
	}
}
