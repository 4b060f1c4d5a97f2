package nodepath

import (
	"fmt"
	"regexp"
	"strings"
)

// keyRegex matches a single key of the canonical string form.
var keyRegex = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)

// isValidKey checks for undesirable but technically valid keys.
func isValidKey(key string) bool {
	return key != "-"
}

// Parse creates a Path from its canonical string representation.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	var p Path
	for i, key := range strings.Split(raw, Separator) {
		if key == "" {
			return nil, &SegmentError{Index: i, Reason: "key is empty"}
		}
		if !keyRegex.MatchString(key) || !isValidKey(key) {
			return nil, &SegmentError{Index: i, Key: key, Reason: "key contains invalid characters"}
		}
		p = append(p, key)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package-level fixtures.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
