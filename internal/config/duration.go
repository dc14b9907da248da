package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration reads the duration stored at the dotted config key. Values
// are Go duration strings ("1.5s", "2m") or a bare number of seconds. An
// empty or zero value yields def.
func ParseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		secs, nerr := strconv.ParseFloat(s, 64)
		if nerr != nil {
			return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	switch {
	case d < 0:
		return 0, fmt.Errorf("%s: must not be negative", key)
	case d == 0:
		return def, nil
	}
	return d, nil
}
