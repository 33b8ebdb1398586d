package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSource_LayerPriority(t *testing.T) {
	props := Properties{"HARVEST_WORK_DIR": "/from/properties"}

	t.Run("environment wins over properties", func(t *testing.T) {
		t.Setenv("HARVEST_WORK_DIR", "/from/env")

		source := NewSource(props)

		assert.Equal(t, "/from/env", source.String("HARVEST_WORK_DIR", "/default"))
	})

	t.Run("properties win over default", func(t *testing.T) {
		source := NewSource(props)

		assert.Equal(t, "/from/properties", source.String("HARVEST_WORK_DIR", "/default"))
	})

	t.Run("default when no layer provides the key", func(t *testing.T) {
		source := NewSource(props)

		assert.Equal(t, "/default", source.String("UNSET_KEY", "/default"))
	})

	t.Run("nil properties degrades to env lookup", func(t *testing.T) {
		source := NewSource(nil)

		assert.Equal(t, "/default", source.String("HARVEST_WORK_DIR", "/default"))
	})
}

func TestSource_StringWithFallback(t *testing.T) {
	rejectEmpty := func(v string) error {
		if v == "bad" {
			return fmt.Errorf("value rejected")
		}
		return nil
	}

	tests := []struct {
		name         string
		envValue     string
		expected     string
		wantFallback bool
	}{
		{
			name:         "valid value passes",
			envValue:     "good",
			expected:     "good",
			wantFallback: false,
		},
		{
			name:         "invalid value falls back with warning",
			envValue:     "bad",
			expected:     "default",
			wantFallback: true,
		},
		{
			name:         "unset uses default without warning",
			envValue:     "",
			expected:     "default",
			wantFallback: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_STRING_KEY", tt.envValue)
			}

			result := NewSource(nil).StringWithFallback("TEST_STRING_KEY", "default", rejectEmpty)

			assert.Equal(t, tt.expected, result.Value.(string))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.NotEmpty(t, result.Warnings)
			}
		})
	}
}

func TestSource_Duration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		expected     time.Duration
		wantFallback bool
	}{
		{
			name:         "valid duration",
			value:        "45s",
			expected:     45 * time.Second,
			wantFallback: false,
		},
		{
			name:         "unparseable duration falls back",
			value:        "soon",
			expected:     time.Minute,
			wantFallback: true,
		},
		{
			name:         "negative duration fails validation",
			value:        "-10s",
			expected:     time.Minute,
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION_KEY", tt.value)

			result := NewSource(nil).Duration("TEST_DURATION_KEY", time.Minute, ValidatePositiveDuration)

			assert.Equal(t, tt.expected, result.Value.(time.Duration))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestSource_Int(t *testing.T) {
	validator := func(v int) error { return ValidateIntRange(v, 1, 50) }

	tests := []struct {
		name         string
		value        string
		expected     int
		wantFallback bool
	}{
		{
			name:         "valid integer",
			value:        "8",
			expected:     8,
			wantFallback: false,
		},
		{
			name:         "unparseable integer falls back",
			value:        "eight",
			expected:     4,
			wantFallback: true,
		},
		{
			name:         "out of range falls back",
			value:        "500",
			expected:     4,
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT_KEY", tt.value)

			result := NewSource(nil).Int("TEST_INT_KEY", 4, validator)

			assert.Equal(t, tt.expected, result.Value.(int))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestSource_Bool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		expected     bool
		wantFallback bool
	}{
		{"true literal", "true", true, false},
		{"numeric true", "1", true, false},
		{"false literal", "false", false, false},
		{"invalid falls back", "yes", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_KEY", tt.value)

			result := NewSource(nil).Bool("TEST_BOOL_KEY", true)

			assert.Equal(t, tt.expected, result.Value.(bool))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestSource_BoolFromProperties(t *testing.T) {
	source := NewSource(Properties{"RUN_ONCE": "true"})

	result := source.Bool("RUN_ONCE", false)

	assert.True(t, result.Value.(bool))
	assert.False(t, result.FallbackApplied)
}
