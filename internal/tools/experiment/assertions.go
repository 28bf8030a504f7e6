package experiment

import (
	"fmt"
	"log"
)

// AssertionMode selects how unmet expectations are handled.
type AssertionMode int

const (
	// AssertionStrict fails the run on the first unmet expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs unmet expectations and keeps the run going.
	AssertionLogOnly
)

// Assertions applies the configured assertion mode to failures. Structural
// failures go through Failf and always stop the run; expectation mismatches
// go through Assertf and honor the mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf reports a failure regardless of mode.
func (a Assertions) Failf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Assertf reports an unmet expectation: an error in strict mode, a log line
// in log-only mode.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionStrict {
		return fmt.Errorf(format, args...)
	}
	if a.Logger != nil {
		a.Logger.Printf("expectation: "+format, args...)
	}
	return nil
}
