package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadAPIKey reads the API token from a credential file.
// The file holds a single `key=value` line; the token is everything after
// the first '='. A missing, empty, or malformed file is an error the caller
// should treat as fatal at startup.
func LoadAPIKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read credential file %s: %w", path, err)
		}
		return "", fmt.Errorf("credential file %s is empty", path)
	}

	line := strings.TrimSpace(scanner.Text())
	_, token, found := strings.Cut(line, "=")
	if !found {
		return "", fmt.Errorf("credential file %s: expected key=value on line 1", path)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("credential file %s: empty token", path)
	}

	return token, nil
}
