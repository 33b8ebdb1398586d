// Package config implements the layered configuration loader used by the
// harvester components. Values resolve in priority order:
//
//  1. process environment
//  2. optional yaml properties file (same keys as the environment variables)
//  3. compiled defaults
//
// Loading is fail-open: an invalid value never stops the process, it falls
// back to the next layer with a warning and a metrics increment so operators
// can see that a fallback is active.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PropertiesFileEnv names the environment variable holding the path of the
// optional properties file.
const PropertiesFileEnv = "PROPERTIES_FILE"

// Properties is the middle configuration layer: a flat yaml mapping of
// key/value pairs. Keys use the same names as the environment variables,
// e.g.:
//
//	CRON_SCHEDULE: "30 5 * * *"
//	LOOKUP_OPS_PER_SEC: "8"
//	HARVEST_WORK_DIR: /var/lib/regharvest
type Properties map[string]string

// LoadProperties reads and parses a properties file. Scalar values of any
// yaml type are accepted and converted to their string form; nested mappings
// and sequences are rejected.
func LoadProperties(path string) (Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse properties file %s: %w", path, err)
	}

	props := make(Properties, len(raw))
	for key, value := range raw {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("properties file %s: key %s: nested values are not supported", path, key)
		case nil:
			props[key] = ""
		default:
			props[key] = fmt.Sprint(value)
		}
	}
	return props, nil
}

// LoadPropertiesFromEnv loads the properties file named by PROPERTIES_FILE.
// An unset variable means no properties layer and returns nil, nil; a set
// variable pointing at an unreadable or invalid file is an error, because an
// operator who configured a file expects it to be honored.
func LoadPropertiesFromEnv() (Properties, error) {
	path := os.Getenv(PropertiesFileEnv)
	if path == "" {
		return nil, nil
	}
	return LoadProperties(path)
}
