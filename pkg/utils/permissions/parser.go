// Package permissions parses the octal file modes accepted by psdkit's
// output flags.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default modes for files and directories the CLI creates.
const (
	DefaultFileMode os.FileMode = 0o644
	DefaultDirMode  os.FileMode = 0o755
)

// ParseMode parses an octal permission string into a file mode.
// Handles formats like "644", "0644", "0o644"; empty yields DefaultFileMode.
func ParseMode(s string) (os.FileMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFileMode, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0")
	if digits == "" {
		return 0, nil
	}

	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return DefaultFileMode, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultFileMode, fmt.Errorf("invalid permission string %q: only permission bits are allowed", s)
	}
	return os.FileMode(val), nil
}

// Format renders the permission bits of mode as "0644".
func Format(mode os.FileMode) string {
	return fmt.Sprintf("0%o", mode.Perm())
}

// DirMode derives a directory mode from a file mode by adding the search
// bit wherever read is granted.
func DirMode(file os.FileMode) os.FileMode {
	perm := file.Perm()
	return perm | (perm&0o444)>>2
}
