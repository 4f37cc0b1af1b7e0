package harness

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/rconsole/internal/journal"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, describe(event))
		}
	}

	return buf.String()
}

func describe(ev TraceEvent) string {
	switch ev.Type {
	case EventStep:
		return fmt.Sprintf("step %d %s", ev.Index, ev.Op)
	case EventRequest:
		return fmt.Sprintf("%s %s -> %s %d", ev.Method, ev.Path, ev.Outcome, ev.Status)
	default:
		return fmt.Sprintf("notify %q", ev.Message)
	}
}

func requestKey(method, path string) string {
	return method + " " + path
}

// assertNotifications checks the exact ordered list of notifications.
func assertNotifications(result *Result, assertion Assertion) error {
	got := result.Notifications()
	if slices.Equal(got, assertion.Messages) {
		return nil
	}
	return &AssertionError{
		Type:     AssertNotifications,
		Expected: fmt.Sprintf("%q", assertion.Messages),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    result.Trace,
	}
}

// assertNotificationContains checks that some notification contains a substring.
func assertNotificationContains(result *Result, assertion Assertion) error {
	for _, msg := range result.Notifications() {
		if strings.Contains(msg, assertion.Message) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertNotificationContains,
		Expected: fmt.Sprintf("a notification containing %q", assertion.Message),
		Actual:   fmt.Sprintf("%q", result.Notifications()),
		Trace:    result.Trace,
	}
}

// assertRequestCount checks that a route was requested exactly Count times.
func assertRequestCount(result *Result, assertion Assertion) error {
	count := 0
	for _, req := range result.Requests() {
		if req.Method == assertion.Method && req.Path == assertion.Path {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%d requests to %s", assertion.Count, requestKey(assertion.Method, assertion.Path)),
			Actual:   fmt.Sprintf("%d requests", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRequestOrder checks that routes were first requested in the given order.
// Routes don't need to be consecutive (intervening requests are allowed).
func assertRequestOrder(result *Result, assertion Assertion) error {
	positions := make(map[string]int)
	for i, req := range result.Requests() {
		key := requestKey(req.Method, req.Path)
		if positions[key] == 0 {
			positions[key] = i + 1 // 1-indexed for readability
		}
	}

	for _, key := range assertion.Requests {
		if positions[key] == 0 {
			return &AssertionError{
				Type:     AssertRequestOrder,
				Expected: fmt.Sprintf("all requests present: %v", assertion.Requests),
				Actual:   fmt.Sprintf("missing request: %s", key),
				Trace:    result.Trace,
			}
		}
	}

	for i := 1; i < len(assertion.Requests); i++ {
		prev := assertion.Requests[i-1]
		curr := assertion.Requests[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertRequestOrder,
				Expected: fmt.Sprintf("requests in order: %v", assertion.Requests),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: result.Trace,
			}
		}
	}

	return nil
}

// assertFinalState checks the final state using subset semantics.
func assertFinalState(result *Result, assertion Assertion) error {
	return matchFields(AssertFinalState, result.State, assertion.Expect)
}

// assertJournal finds exactly one journal entry matching Where and checks
// Expect against it using subset semantics.
func assertJournal(result *Result, assertion Assertion) error {
	var matched []map[string]any
	for _, e := range result.Journal {
		fields := entryFields(e)
		if matchArgs(fields, assertion.Where) {
			matched = append(matched, fields)
		}
	}

	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("entry where %s", formatWhereClause(assertion.Where)),
			Actual:   "entry not found",
		}
	case 1:
		return matchFields(AssertJournal, matched[0], assertion.Expect)
	default:
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("exactly one entry where %s", formatWhereClause(assertion.Where)),
			Actual:   "multiple entries matched (assertion is ambiguous)",
		}
	}
}

// matchFields checks each expected field against actual.
func matchFields(kind string, actual, expected map[string]any) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present", key),
			}
		}
		if !valuesEqual(actualValue, expected[key]) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected[key], expected[key]),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// entryFields exposes a journal entry by its JSON field names.
func entryFields(e journal.Entry) map[string]any {
	return map[string]any{
		"seq":        e.Seq,
		"request_id": e.RequestID,
		"op":         e.Op,
		"method":     e.Method,
		"path":       e.Path,
		"section":    e.Section,
		"outcome":    e.Outcome,
		"status":     e.Status,
		"message":    e.Message,
	}
}

// formatWhereClause formats a where clause for error messages.
// Keys are sorted for determinism.
func formatWhereClause(where map[string]any) string {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// matchArgs checks if actual contains all expected fields (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual map[string]any, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values for equality.
// Integers of any Go type compare by value, since YAML yields int while
// journal fields are int64.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if a, ok := toInt64(actual); ok {
		e, ok := toInt64(expected)
		return ok && a == e
	}

	if as, ok := actual.([]any); ok {
		es, ok := expected.([]any)
		if !ok || len(as) != len(es) {
			return false
		}
		for i := range as {
			if !valuesEqual(as[i], es[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(actual, expected)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertNotifications:
			err = assertNotifications(result, assertion)
		case AssertNotificationContains:
			err = assertNotificationContains(result, assertion)
		case AssertRequestCount:
			err = assertRequestCount(result, assertion)
		case AssertRequestOrder:
			err = assertRequestOrder(result, assertion)
		case AssertFinalState:
			err = assertFinalState(result, assertion)
		case AssertJournal:
			err = assertJournal(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
