package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/tipsbot/internal/config"
	"github.com/tipsbot/internal/logging"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required variables that are missing
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

var requiredVars = []string{
	config.EnvPrefix + "DISCORD__PUBLIC_KEY",
	config.EnvPrefix + "DISCORD__OWNER_ID",
	config.EnvPrefix + "GITHUB__OWNER",
	config.EnvPrefix + "GITHUB__REPO",
}

var optionalVars = []string{
	config.EnvPrefix + "DISCORD__APPLICATION_ID",
	config.EnvPrefix + "DISCORD__CLIENT_SECRET",
	config.EnvPrefix + "GITHUB__TOKEN",
	config.EnvPrefix + "GITHUB__APP_ID",
	config.EnvPrefix + "GITHUB__INSTALLATION_ID",
	config.EnvPrefix + "GITHUB__PRIVATE_KEY_PATH",
	config.EnvPrefix + "RATELIMIT__REDIS_URL",
	config.EnvPrefix + "RATELIMIT__DATABASE_URL",
}

// CheckRequiredConfig reports which deployment variables are set. Values are masked.
func CheckRequiredConfig() *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	for _, v := range requiredVars {
		val := os.Getenv(v)
		if val == "" {
			result.Missing = append(result.Missing, v)
		} else {
			result.Present[v] = logging.Mask(val)
		}
	}

	for _, v := range optionalVars {
		if val := os.Getenv(v); val != "" {
			result.Present[v] = logging.Mask(val)
		}
	}

	if os.Getenv(config.EnvPrefix+"GITHUB__TOKEN") == "" && os.Getenv(config.EnvPrefix+"GITHUB__APP_ID") == "" {
		result.Warnings = append(result.Warnings, "neither a GitHub token nor GitHub App credentials are set in the environment")
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(result *ConfigCheckResult) {
	fmt.Println("=== Configuration Check ===")

	if len(result.Missing) > 0 {
		fmt.Println("Missing required variables:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		fmt.Println("Configured variables:")
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("   - %s = %s\n", k, result.Present[k])
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	if len(result.Missing) == 0 {
		fmt.Println("All required configuration is present")
	}

	fmt.Println("============================")
}

// LoadEnvFile loads environment variables from a file, overwriting existing
// ones. A missing default .env is not an error.
func LoadEnvFile(filename string, required bool) error {
	err := godotenv.Overload(filename)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", filename, err)
	}
	return nil
}
