package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_ClampsInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		offset     int
		limit      int
	}{
		{"defaults", 1, DefaultPageSize, 0, DefaultPageSize},
		{"second page", 2, 10, 10, 10},
		{"zero page", 0, 10, 0, 10},
		{"negative page", -3, 10, 0, 10},
		{"zero size", 1, 0, 0, DefaultPageSize},
		{"oversized", 1, 1000000, 0, DefaultPageSize},
		{"max size kept", 3, MaxPageSize, 2 * MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("seven", 1))
}
