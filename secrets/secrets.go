package secrets

import (
	"fmt"
	"os"
	"strings"
)

// LoadFromFile loads a secret from a file path
func LoadFromFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("secret file path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", path)
	}

	return data, nil
}

// LoadToken loads a single-line token from a file, dropping surrounding
// whitespace such as the trailing newline most editors add
func LoadToken(path string) (string, error) {
	data, err := LoadFromFile(path)
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return token, nil
}
