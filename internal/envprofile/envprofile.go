// Package envprofile loads named environment profiles: <dir>/<name>.env
// files of KEY=VALUE lines that configure a run without flags.
package envprofile

// #region imports
import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// #endregion imports

// #region types

// DefaultProfile is the profile used when none is named.
const DefaultProfile = "prod"

// UnknownProfileError reports a profile name with no matching .env file.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown environment profile %q", e.Name)
}

// #endregion types

// #region load

// Load reads <dir>/<name>.env and returns its key/value pairs. Blank lines
// and lines starting with '#' are skipped; surrounding double quotes on
// values are stripped.
func Load(dir, name string) (map[string]string, error) {
	path := filepath.Join(dir, name+".env")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &UnknownProfileError{Name: name}
		}
		return nil, fmt.Errorf("open profile %s: %w", path, err)
	}
	defer f.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("profile %s line %d: missing '='", path, lineNo)
		}
		vars[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(val), `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return vars, nil
}

// Apply loads a profile and sets each pair in the process environment.
func Apply(dir, name string) error {
	vars, err := Load(dir, name)
	if err != nil {
		return err
	}
	for key, val := range vars {
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// #endregion load
