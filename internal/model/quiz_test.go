package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"single", KindSingle},
		{"multiple", KindMultiple},
		{"judgement", KindJudgement},
		{"completion", KindCompletion},
		{"", KindUnknown},
		{"essay", KindUnknown},
		{"SINGLE", KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseKind(tt.in), "input %q", tt.in)
	}
}

func TestKindIsChoice(t *testing.T) {
	assert.True(t, KindSingle.IsChoice())
	assert.True(t, KindMultiple.IsChoice())
	assert.False(t, KindJudgement.IsChoice())
	assert.False(t, KindCompletion.IsChoice())
	assert.False(t, KindUnknown.IsChoice())
}
