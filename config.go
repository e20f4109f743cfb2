package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
)

func defaultConfig() config {
	return config{
		Zone:        "example.com.",
		DNSListen:   ":5353",
		HTTPListen:  ":3000",
		DBPath:      "dyndns.db",
		DefaultIPv4: "127.0.0.1",
		DefaultIPv6: "",
		AnswerTTL:   300,
	}
}

// loadConfig reads the JSON config file at path. A missing file is not an
// error: the defaults are written out so the operator has something to edit.
func loadConfig(path string) (config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := defaultConfig()
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return config{}, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
			return config{}, fmt.Errorf("write default config %s: %w", path, err)
		}
		log.Printf("wrote default config to %s", path)
		return cfg, nil
	}
	if err != nil {
		return config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.Zone = normalizeName(cfg.Zone)
	return cfg, nil
}

func (c config) validate() error {
	if normalizeName(c.Zone) == "." {
		return errors.New("dns_zone is required")
	}
	if c.DefaultIPv4 != "" {
		ip := net.ParseIP(c.DefaultIPv4)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("default_ipv4 %q is not an IPv4 address", c.DefaultIPv4)
		}
	}
	if c.DefaultIPv6 != "" {
		ip := net.ParseIP(c.DefaultIPv6)
		if ip == nil || ip.To4() != nil {
			return fmt.Errorf("default_ipv6 %q is not an IPv6 address", c.DefaultIPv6)
		}
	}
	if c.AnswerTTL == 0 {
		return errors.New("answer_ttl must be positive")
	}
	return nil
}

// defaultAddr is the operator-configured fallback for names without a
// binding, one per family. "" means no fallback configured.
func (c config) defaultAddr(family addrFamily) string {
	switch family {
	case familyIPv4:
		return c.DefaultIPv4
	case familyIPv6:
		return c.DefaultIPv6
	}
	return ""
}
