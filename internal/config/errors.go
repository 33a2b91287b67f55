package config

import (
	"fmt"
	"strings"
)

// ParseError reports a configuration file that could not be read, parsed or
// bound to its schema.
type ParseError struct {
	Path string
	// Schema is the schema name the file was bound to, when known.
	Schema string
	// Fields lists keys the schema does not recognize.
	Fields []string
	Err    error
}

func (e *ParseError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("invalid config file %s: unrecognized fields for %s: %s", e.Path, e.Schema, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("failed to parse config file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
