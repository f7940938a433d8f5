package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParameterSource gives the nodes access to the parameters the host
// collected for an invocation.
type ParameterSource interface {
	GetString(name, fallback string) string
	GetBool(name string, fallback bool) bool
	GetInt(name string, fallback int) (int, error)
	GetStrings(name string) []string
}

// Parameters is a ParameterSource backed by decoded JSON.
type Parameters map[string]any

var _ ParameterSource = Parameters{}

func (p Parameters) GetString(name, fallback string) string {
	switch v := p[name].(type) {
	case string:
		return v
	case nil:
		return fallback
	default:
		return fmt.Sprint(v)
	}
}

func (p Parameters) GetBool(name string, fallback bool) bool {
	switch v := p[name].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}

		return b
	default:
		return fallback
	}
}

func (p Parameters) GetInt(name string, fallback int) (int, error) {
	switch v := p[name].(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("parameter %s: %v is not a whole number", name, v)
		}

		return int(v), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", name, err)
		}

		return i, nil
	default:
		return 0, fmt.Errorf("parameter %s: unsupported type %T", name, v)
	}
}

// GetStrings accepts either an array of strings or a comma separated
// string.
func (p Parameters) GetStrings(name string) []string {
	switch v := p[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case string:
		out := []string{}
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
