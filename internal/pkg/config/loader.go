package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult represents the result of loading one configuration value:
// the resolved value, any warnings generated while resolving it, and whether
// the compiled default was used because a configured value failed validation.
//
// Example:
//
//	result := source.Duration("RUN_TIMEOUT", 30*time.Minute, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        logger.Warn("configuration fallback", slog.String("warning", warning))
//	    }
//	}
//	timeout := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// Source resolves configuration keys through the layers: process environment
// first, then the optional properties file. A nil-properties Source degrades
// to plain environment lookup.
type Source struct {
	props Properties
}

// NewSource creates a Source over the given properties layer. props may be
// nil.
func NewSource(props Properties) *Source {
	return &Source{props: props}
}

// lookup returns the raw value for key and whether any layer provided it.
func (s *Source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if s.props != nil {
		if value, ok := s.props[key]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}

// String resolves a string value with no validation. Unset keys return the
// default.
func (s *Source) String(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultValue
}

// StringWithFallback resolves a string value and validates it. A value that
// fails validation falls back to the default with a warning; an unset key
// uses the default silently.
func (s *Source) StringWithFallback(key, defaultValue string, validator func(string) error) ConfigLoadResult {
	value, ok := s.lookup(key)
	if !ok {
		return ConfigLoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(key, value, defaultValue, err)
		}
	}
	return ConfigLoadResult{Value: value}
}

// Duration resolves a time.Duration value. The configured value must be
// parseable by time.ParseDuration (e.g. "30s", "1h30m"); parse and validation
// failures fall back to the default with a warning.
func (s *Source) Duration(key string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr, ok := s.lookup(key)
	if !ok {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(key, valueStr, defaultValue, err)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(key, valueStr, defaultValue, err)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// Int resolves an integer value. Parse and validation failures fall back to
// the default with a warning.
func (s *Source) Int(key string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr, ok := s.lookup(key)
	if !ok {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallbackResult(key, valueStr, defaultValue, fmt.Errorf("invalid integer format"))
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(key, valueStr, defaultValue, err)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// Bool resolves a boolean value.
//
// Accepted true values: "1", "t", "T", "true", "TRUE", "True"
// Accepted false values: "0", "f", "F", "false", "FALSE", "False"
//
// Any other value falls back to the default with a warning.
func (s *Source) Bool(key string, defaultValue bool) ConfigLoadResult {
	valueStr, ok := s.lookup(key)
	if !ok {
		return ConfigLoadResult{Value: defaultValue}
	}

	switch valueStr {
	case "1", "t", "T", "true", "TRUE", "True":
		return ConfigLoadResult{Value: true}
	case "0", "f", "F", "false", "FALSE", "False":
		return ConfigLoadResult{Value: false}
	default:
		return fallbackResult(key, valueStr, defaultValue,
			fmt.Errorf("invalid boolean format, expected 'true' or 'false'"))
	}
}

// fallbackResult builds the warning-carrying result for an invalid value.
func fallbackResult(key, value string, defaultValue interface{}, err error) ConfigLoadResult {
	return ConfigLoadResult{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'", key, value, err, defaultValue)},
		FallbackApplied: true,
	}
}
