package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ParseDotenv parses KEY=VALUE lines. Blank lines and lines starting with #
// are skipped, the value is everything after the first =, and both sides are
// trimmed. Pairs with an empty key or value are dropped. Quotes and inline
// comments are kept verbatim.
func ParseDotenv(data []byte) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		values[key] = value
	}
	return values
}

// ReadEnvFile reads a build-generated env file. A missing file yields an
// empty MapEnv.
func ReadEnvFile(path string) (MapEnv, error) {
	if path == "" {
		return MapEnv{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MapEnv{}, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return MapEnv(values), nil
}

// WriteEnvFile writes the injected keys found in env to path.
func WriteEnvFile(path string, env Env) (map[string]string, error) {
	values := make(map[string]string, len(InjectedKeys))
	for _, key := range InjectedKeys {
		values[key] = env.Getenv(key)
	}
	if err := godotenv.Write(values, path); err != nil {
		return nil, fmt.Errorf("write env file %s: %w", path, err)
	}
	return values, nil
}
