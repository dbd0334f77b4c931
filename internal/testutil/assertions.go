package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertPageLive checks the end-of-run page summary in the captured logs for
// the expected live entity count.
func AssertPageLive(t *testing.T, result *HarnessResult, page string, live int) {
	t.Helper()

	expected := fmt.Sprintf("page=%s live=%d", page, live)
	found := false
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Page summary.") && strings.Contains(line, expected) {
			found = true
			break
		}
	}
	require.True(t, found,
		"expected page summary %q was not found in logs", expected)
}

// AssertNodeRan checks the captured logs for the dispatch record of a node.
func AssertNodeRan(t *testing.T, result *HarnessResult, node string) {
	t.Helper()

	expected := fmt.Sprintf("node=%s", node)
	found := false
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Node dispatched.") && strings.Contains(line, expected) {
			found = true
			break
		}
	}
	require.True(t, found, "expected dispatch log for node %q was not found", node)
}
