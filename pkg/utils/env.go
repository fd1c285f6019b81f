package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

func lookupEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	if exists {
		log.Debug().Str("key", key).Msg("Using value from environment")
	}

	return value, exists
}

// GetStringEnvOrDefault returns the value of the environment variable key,
// or defaultValue if it is not set.
func GetStringEnvOrDefault(key string, defaultValue string) string {
	if value, exists := lookupEnv(key); exists {
		return value
	}

	return defaultValue
}

// GetBoolEnvOrDefault parses the environment variable key as a bool
// ("1", "true", "false" etc.), or returns defaultValue if it is not set.
func GetBoolEnvOrDefault(key string, defaultValue bool) (bool, error) {
	if value, exists := lookupEnv(key); exists {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue, fmt.Errorf("%v: %w", key, err)
		}

		return v, nil
	}

	return defaultValue, nil
}

// GetIntEnvOrDefault parses the environment variable key as an integer,
// or returns defaultValue if it is not set.
func GetIntEnvOrDefault(key string, defaultValue int) (int, error) {
	if value, exists := lookupEnv(key); exists {
		v, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue, fmt.Errorf("%v: %w", key, err)
		}

		return v, nil
	}

	return defaultValue, nil
}

// GetDurationEnvOrDefault parses the environment variable key as a
// time.Duration, or returns defaultValue if it is not set.
func GetDurationEnvOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	if value, exists := lookupEnv(key); exists {
		v, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue, fmt.Errorf("%v: %w", key, err)
		}

		return v, nil
	}

	return defaultValue, nil
}
