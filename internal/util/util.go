package util

import (
	"os"
)

// GetEnv returns the value of key or defaultValue when it is unset.
func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
