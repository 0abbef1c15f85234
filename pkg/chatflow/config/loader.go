package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FromFile loads configuration from a file, auto-detecting the
// format by extension. Supported: .yaml, .yml, .json, .env.
func FromFile(path string) (Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".env" {
		return FromEnvFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// FromEnvFile loads a dotenv file. Keys are lowercased and "__"
// becomes a section separator, so WINDOWS__WHATSAPP=12h lands in
// Section("windows") under "whatsapp".
func FromEnvFile(path string) (Config, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return Config{}, fmt.Errorf("read env file: %w", err)
	}

	m := make(map[string]any)
	for key, value := range env {
		key = strings.ToLower(key)
		section, rest, nested := strings.Cut(key, "__")
		if !nested {
			m[key] = value
			continue
		}
		sub, ok := m[section].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[section] = sub
		}
		sub[rest] = value
	}
	return New(m), nil
}
