package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingSessionSecret is returned when SESSION_SECRET is unset
	ErrMissingSessionSecret = errors.New("SESSION_SECRET is required")
	// ErrMissingEncryptionSecret is returned when SESSION_ENCRYPTION_SECRET is unset
	ErrMissingEncryptionSecret = errors.New("SESSION_ENCRYPTION_SECRET is required")
	// ErrSharedSessionSecrets is returned when both session secrets are equal
	ErrSharedSessionSecrets = errors.New("SESSION_SECRET and SESSION_ENCRYPTION_SECRET must differ")
)

// ValidateEnv validates that all required environment variables are set
func ValidateEnv(requiredVars []string) error {
	var missing []string

	for _, varName := range requiredVars {
		value := os.Getenv(varName)
		if value == "" {
			missing = append(missing, varName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// ValidateSessionSecrets ensures the cookie-signing and payload-encryption
// secrets are both set and independent.
func ValidateSessionSecrets(signing, encryption string) error {
	switch {
	case signing == "":
		return ErrMissingSessionSecret
	case encryption == "":
		return ErrMissingEncryptionSecret
	case signing == encryption:
		return ErrSharedSessionSecrets
	}
	return nil
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
