package model

import (
	"errors"
	"testing"
)

// TestTerminalStateString tests the String method of TerminalState.
func TestTerminalStateString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		state    TerminalState
		expected string
	}{
		{TerminalExhausted, "exhausted"},
		{TerminalStalled, "stalled"},
		{TerminalFailed, "failed"},
		{TerminalUnknown, "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.state.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.state.String(), tc.expected)
			}
		})
	}
}

// TestTermResultCount tests identifier counting including nil sets.
func TestTermResultCount(t *testing.T) {
	t.Parallel()

	t.Run("nil set counts zero", func(t *testing.T) {
		t.Parallel()

		r := TermResult{Term: "a", Err: errors.New("boom"), Terminal: TerminalFailed}
		if r.Count() != 0 {
			t.Errorf("expected 0, got %d", r.Count())
		}
	})

	t.Run("populated set", func(t *testing.T) {
		t.Parallel()

		r := TermResult{
			Term:     "b",
			Found:    map[string]struct{}{"1": {}, "2": {}},
			Terminal: TerminalExhausted,
		}
		if r.Count() != 2 {
			t.Errorf("expected 2, got %d", r.Count())
		}
	})
}
