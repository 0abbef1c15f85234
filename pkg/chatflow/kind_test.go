package chatflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNodeKind_Classification tests the kind predicates across the
// whole enumeration.
func TestNodeKind_Classification(t *testing.T) {
	cases := []struct {
		kind      NodeKind
		message   bool
		terminal  bool
		branching bool
	}{
		{KindStart, false, false, false},
		{KindText, true, false, false},
		{KindImage, true, false, false},
		{KindAudio, true, false, false},
		{KindVideo, true, false, false},
		{KindDocument, true, false, false},
		{KindButton, true, false, true},
		{KindList, true, false, true},
		{KindAssignAgent, false, true, false},
		{KindDisableChat, false, true, false},
		{KindAPIRequest, false, false, false},
		{KindCondition, false, false, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.True(t, tc.kind.Known())
			assert.Equal(t, tc.message, tc.kind.MessageProducing())
			assert.Equal(t, tc.terminal, tc.kind.Terminal())
			assert.Equal(t, tc.branching, tc.kind.Branching())
		})
	}
}

// TestNodeKind_Unknown tests kinds outside the closed set.
func TestNodeKind_Unknown(t *testing.T) {
	k := NodeKind("carousel")
	assert.False(t, k.Known())
	assert.False(t, k.MessageProducing())
	assert.False(t, k.Terminal())
	assert.Equal(t, "carousel", k.String())
}
