package kinds

import (
	"fmt"
	"path/filepath"
)

// RequireString reads a required string option
func (s Spec) RequireString(key string) (string, error) {
	raw, ok := s.Options[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("provider %s: option %q is required", s.Metadata.Name, key)
	}
	v, ok := raw.(string)
	if !ok || v == "" {
		return "", fmt.Errorf("provider %s: option %q must be a non-empty string", s.Metadata.Name, key)
	}
	return v, nil
}

// StringOr reads an optional string option
func (s Spec) StringOr(key, fallback string) (string, error) {
	if raw, ok := s.Options[key]; !ok || raw == nil {
		return fallback, nil
	}
	return s.RequireString(key)
}

// Int reads an optional integer option
func (s Spec) Int(key string, fallback int) (int, error) {
	raw, ok := s.Options[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("provider %s: option %q must be an integer", s.Metadata.Name, key)
}

// Strings reads an optional list of strings
func (s Spec) Strings(key string) ([]string, error) {
	raw, ok := s.Options[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("provider %s: option %q must list strings", s.Metadata.Name, key)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("provider %s: option %q must be a list", s.Metadata.Name, key)
}

// Path resolves a file option against the module directory
func (s Spec) Path(key string) (string, error) {
	p, err := s.RequireString(key)
	if err != nil {
		return "", err
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(s.ModuleDir, p), nil
}
