package experiment

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// defaultTolerance absorbs float rounding when an expectation does not set
// its own tolerance key.
const defaultTolerance = 1e-9

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

type boundKind int

const (
	boundExact boundKind = iota
	boundMin
	boundMax
)

// checkExpectations compares a step's results against its expect table.
// A key matching a result field compares exactly; a min_ or max_ prefix on a
// result field checks a bound instead. Result fields that are themselves
// named min_* or max_*, like a batch's min_longest_run, win over the prefix
// reading.
func (r *Runner) checkExpectations(args, results map[string]any) error {
	raw, ok := args["expect"]
	if !ok {
		return nil
	}
	expect, ok := raw.(map[string]any)
	if !ok {
		return r.failf("expect must be a table")
	}
	tolerance := optionalFloat(expect, "tolerance", defaultTolerance)

	keys := make([]string, 0, len(expect))
	for key := range expect {
		if key == "tolerance" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := expect[key]
		got, bound, ok := resolveExpectation(results, key)
		if !ok {
			return r.failf("unknown expectation %q", key)
		}
		switch bound {
		case boundExact:
			if !valuesMatch(got, want, tolerance) {
				if err := r.assertf("%s = %v, want %v", key, got, want); err != nil {
					return err
				}
			}
		case boundMin:
			satisfied, err := boundSatisfied(got, want, tolerance, true)
			if err != nil {
				return r.failf("%s: %v", key, err)
			}
			if !satisfied {
				field := strings.TrimPrefix(key, "min_")
				if err := r.assertf("%s = %v, want >= %v", field, got, want); err != nil {
					return err
				}
			}
		case boundMax:
			satisfied, err := boundSatisfied(got, want, tolerance, false)
			if err != nil {
				return r.failf("%s: %v", key, err)
			}
			if !satisfied {
				field := strings.TrimPrefix(key, "max_")
				if err := r.assertf("%s = %v, want <= %v", field, got, want); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// resolveExpectation maps an expectation key to the result value it checks
// and how. Exact field names are tried before prefix readings.
func resolveExpectation(results map[string]any, key string) (any, boundKind, bool) {
	if got, ok := results[key]; ok {
		return got, boundExact, true
	}
	if field, found := strings.CutPrefix(key, "min_"); found {
		if got, ok := results[field]; ok {
			return got, boundMin, true
		}
	}
	if field, found := strings.CutPrefix(key, "max_"); found {
		if got, ok := results[field]; ok {
			return got, boundMax, true
		}
	}
	return nil, boundExact, false
}

// valuesMatch compares a result against an expected value. Integer values,
// including counts carried as decimal strings, compare exactly; floats
// compare within the tolerance; everything else compares by equality.
func valuesMatch(got, want any, tolerance float64) bool {
	if gotBig, ok := bigFromValue(got); ok {
		if wantBig, ok := bigFromValue(want); ok {
			return gotBig.Cmp(wantBig) == 0
		}
	}
	gotFloat, gotOK := floatValue(got)
	wantFloat, wantOK := floatValue(want)
	if gotOK && wantOK {
		return math.Abs(gotFloat-wantFloat) <= tolerance
	}
	return got == want
}

func boundSatisfied(got, want any, tolerance float64, min bool) (bool, error) {
	if gotBig, ok := bigFromValue(got); ok {
		if wantBig, ok := bigFromValue(want); ok {
			if min {
				return gotBig.Cmp(wantBig) >= 0, nil
			}
			return gotBig.Cmp(wantBig) <= 0, nil
		}
	}
	gotFloat, gotOK := floatValue(got)
	wantFloat, wantOK := floatValue(want)
	if !gotOK || !wantOK {
		return false, fmt.Errorf("cannot compare %v and %v", got, want)
	}
	if min {
		return gotFloat >= wantFloat-tolerance, nil
	}
	return gotFloat <= wantFloat+tolerance, nil
}

func bigFromValue(value any) (*big.Int, bool) {
	switch typed := value.(type) {
	case int:
		return big.NewInt(int64(typed)), true
	case int64:
		return big.NewInt(typed), true
	case string:
		parsed, ok := new(big.Int).SetString(strings.TrimSpace(typed), 10)
		if !ok {
			return nil, false
		}
		return parsed, true
	default:
		return nil, false
	}
}

func floatValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func readInt64(args map[string]any, key string) (int64, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return int64(typed), true
	case int64:
		return typed, true
	case float64:
		return int64(typed), true
	default:
		return 0, false
	}
}

func optionalInt(args map[string]any, key string, fallback int) int {
	value, ok := readInt(args, key)
	if !ok {
		return fallback
	}
	return value
}

func optionalFloat(args map[string]any, key string, fallback float64) float64 {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch typed := value.(type) {
	case float64:
		return typed
	case int:
		return float64(typed)
	default:
		return fallback
	}
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}
