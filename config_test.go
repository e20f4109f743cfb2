package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Zone != "example.com." {
		t.Fatalf("unexpected default zone: %q", cfg.Zone)
	}
	if cfg.AnswerTTL != 300 {
		t.Fatalf("unexpected default TTL: %d", cfg.AnswerTTL)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file should have been written: %v", err)
	}

	// The written file loads back to the same configuration.
	again, err := loadConfig(path)
	if err != nil {
		t.Fatalf("second loadConfig: %v", err)
	}
	if again != cfg {
		t.Fatalf("reloaded config differs: %#v vs %#v", again, cfg)
	}
}

func TestLoadConfigNormalizesZone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"dns_zone":"Example.COM","default_ipv4":"10.0.0.1"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Zone != "example.com." {
		t.Fatalf("zone should be normalized, got %q", cfg.Zone)
	}
	if cfg.DefaultIPv4 != "10.0.0.1" {
		t.Fatalf("unexpected default ipv4: %q", cfg.DefaultIPv4)
	}
	// Unset fields keep their defaults.
	if cfg.HTTPListen != ":3000" {
		t.Fatalf("unexpected http listen: %q", cfg.HTTPListen)
	}
}

func TestLoadConfigRejectsBadAddresses(t *testing.T) {
	for _, body := range []string{
		`{"dns_zone":"example.com.","default_ipv4":"not-an-ip"}`,
		`{"dns_zone":"example.com.","default_ipv4":"2001:db8::1"}`,
		`{"dns_zone":"example.com.","default_ipv6":"10.0.0.1"}`,
		`{"dns_zone":""}`,
	} {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadConfig(path); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestDefaultAddrPerFamily(t *testing.T) {
	cfg := config{DefaultIPv4: "1.2.3.4", DefaultIPv6: ""}
	if got := cfg.defaultAddr(familyIPv4); got != "1.2.3.4" {
		t.Fatalf("unexpected ipv4 default: %q", got)
	}
	if got := cfg.defaultAddr(familyIPv6); got != "" {
		t.Fatalf("expected empty ipv6 default, got %q", got)
	}
}
