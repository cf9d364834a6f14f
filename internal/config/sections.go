package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RuleSections returns every [rules."<name>"] table flattened to string values.
func (c *Config) RuleSections() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(c.Rules))
	for name, table := range c.Rules {
		flat, err := flattenSection("rules."+name, table)
		if err != nil {
			return nil, err
		}
		out[name] = flat
	}
	return out, nil
}

// DefaultOverrides returns the [defaults] table flattened to string values.
func (c *Config) DefaultOverrides() (map[string]string, error) {
	return flattenSection("defaults", c.Defaults)
}

// flattenSection converts a decoded TOML table into the string form rule
// compilation expects. Booleans become "True"/"False", arrays join with
// commas, and nested tables are rejected.
func flattenSection(label string, table map[string]any) (map[string]string, error) {
	flat := make(map[string]string, len(table))
	for key, value := range table {
		str, err := stringifyValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", label, key, err)
		}
		flat[key] = str
	}
	return flat, nil
}

func stringifyValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			switch item.(type) {
			case []any, map[string]any:
				return "", fmt.Errorf("nested arrays are not supported")
			}
			str, err := stringifyValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, str)
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		return "", fmt.Errorf("nested tables are not supported")
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}
