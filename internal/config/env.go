package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded from the working directory before flags are parsed.
const DefaultEnvFile = ".env"

// LoadEnvFile exports the variables in path into the process environment so
// that Kong's env bindings pick them up. Variables already set in the
// environment win. A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("config: load %s: %w", path, err)
	}
	return true, nil
}
