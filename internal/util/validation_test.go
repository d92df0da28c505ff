package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		input string
		blank bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"hello", false},
		{"  hi  ", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.blank, IsBlank(tt.input), "input %q", tt.input)
	}
}
