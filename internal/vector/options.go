package vector

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Options is a string to string mapping of creation options. Keys are
// matched case-insensitively; validation is left to the dataset.
type Options map[string]string

// ParseOptions builds Options from "KEY=VALUE" pairs.
func ParseOptions(pairs []string) (Options, error) {
	opts := make(Options, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, eris.Errorf("vector: malformed option %q (want KEY=VALUE)", p)
		}
		opts[strings.TrimSpace(k)] = v
	}
	return opts, nil
}

// Lookup returns the value for key and whether it was set.
func (o Options) Lookup(key string) (string, bool) {
	if v, ok := o[key]; ok {
		return v, true
	}
	for k, v := range o {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Get returns the value for key, or def when unset.
func (o Options) Get(key, def string) string {
	if v, ok := o.Lookup(key); ok {
		return v
	}
	return def
}

// Bool interprets key as a boolean flag. Unrecognised values fall back to def.
func (o Options) Bool(key string, def bool) bool {
	v, ok := o.Lookup(key)
	if !ok {
		return def
	}
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "YES", "TRUE", "ON", "1":
		return true
	case "NO", "FALSE", "OFF", "0":
		return false
	default:
		return def
	}
}

// Keys returns the option keys in sorted order.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
