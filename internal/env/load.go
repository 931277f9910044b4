package env

import (
	"errors"
	"io/fs"
	"os"

	"github.com/subosito/gotenv"
)

// Load reads the given file (e.g. ".env") and sets environment variables for each
// KEY=VALUE line. Variables already set in the process environment win.
// The file may be missing; that is not an error.
func Load(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return gotenv.Load(path)
}
