package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that every fragment appears somewhere in the log output.
func AssertLogged(t *testing.T, logs string, fragments ...string) {
	t.Helper()

	for _, f := range fragments {
		require.True(t, strings.Contains(logs, f), "expected log output to contain %q", f)
	}
}

// AssertLogOrder checks that the fragments appear in the log output in order.
func AssertLogOrder(t *testing.T, logs string, fragments ...string) {
	t.Helper()

	pos := 0
	for _, f := range fragments {
		idx := strings.Index(logs[pos:], f)
		require.GreaterOrEqual(t, idx, 0, "expected %q after offset %d in log output", f, pos)
		pos += idx + len(f)
	}
}
