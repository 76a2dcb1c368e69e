// Package duration converts between "HH:MM:SS" wall-clock strings and whole
// seconds. Everything inside the service works on Seconds; the string form
// only exists at the JSON boundary.
package duration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var ErrInvalidFormat = errors.New("invalid duration format, expected HH:MM:SS")

var hmsPattern = regexp.MustCompile(`^(\d{2,}):([0-5]\d):([0-5]\d)$`)

// Seconds is a non-negative count of whole seconds.
type Seconds int64

// Parse accepts strictly HH:MM:SS with minutes and seconds in [00,59].
// Hours are at least two digits so that anything Format emits parses back.
func Parse(s string) (Seconds, error) {
	m := hmsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	h, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || h > math.MaxInt64/3600-1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	mm, _ := strconv.ParseInt(m[2], 10, 64)
	ss, _ := strconv.ParseInt(m[3], 10, 64)
	return Seconds(h*3600 + mm*60 + ss), nil
}

// Format renders seconds as zero padded HH:MM:SS, clamping negatives to 0.
func Format(s Seconds) string {
	if s < 0 {
		s = 0
	}
	n := int64(s)
	return fmt.Sprintf("%02d:%02d:%02d", n/3600, (n%3600)/60, n%60)
}

// FromFloat truncates a fractional player report to whole seconds.
func FromFloat(f float64) Seconds {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return Seconds(math.MaxInt64)
	}
	return Seconds(int64(f))
}

func (s Seconds) String() string { return Format(s) }

func (s Seconds) Int64() int64 { return int64(s) }

// Clamp bounds s to [lo, hi].
func (s Seconds) Clamp(lo, hi Seconds) Seconds {
	if s < lo {
		return lo
	}
	if s > hi {
		return hi
	}
	return s
}

func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(Format(s))
}

// UnmarshalJSON accepts either an HH:MM:SS string or a non-negative number of
// seconds. null leaves the value untouched.
func (s *Seconds) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		v, err := Parse(raw)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, string(b))
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, string(b))
	}
	*s = FromFloat(f)
	return nil
}
