package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Trivia struct {
		// APIURL overrides the Open Trivia DB endpoint; empty means default.
		APIURL string `yaml:"apiUrl"`
		// Source picks the question source: "opentdb" (default), "bank"
		// (Postgres question banks) or "samples".
		Source string `yaml:"source"`
		TTL    string `yaml:"ttl"`
	} `yaml:"trivia"`
	Quiz struct {
		QuestionTimeout string   `yaml:"questionTimeout"`
		SettleDelay     string   `yaml:"settleDelay"`
		ChallengeExpiry string   `yaml:"challengeExpiry"`
		Admins          []string `yaml:"admins"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
