// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	cache_dir?: string
	max_age_hours?: int & >=1 & <=168
	debug?: bool
}
`

type settings struct {
	CacheDir    string `json:"cache_dir"`
	MaxAgeHours int    `json:"max_age_hours"`
	Debug       bool   `json:"debug"`
}

func TestDecode_Valid(t *testing.T) {
	t.Parallel()

	data := []byte(`
cache_dir: "/tmp/cache"
max_age_hours: 24
debug: true
`)
	got, err := Decode[settings]([]byte(testSchema), data, "#Settings", "settings.cue")
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.CacheDir != "/tmp/cache" || got.MaxAgeHours != 24 || !got.Debug {
		t.Errorf("decoded = %+v", got)
	}
}

func TestDecode_ConstraintViolation(t *testing.T) {
	t.Parallel()

	data := []byte(`max_age_hours: 500`)
	_, err := Decode[settings]([]byte(testSchema), data, "#Settings", "settings.cue")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "settings.cue") {
		t.Errorf("error should name the file: %v", err)
	}
	if !strings.Contains(err.Error(), "max_age_hours") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestDecode_WrongType(t *testing.T) {
	t.Parallel()

	data := []byte(`debug: "yes"`)
	if _, err := Decode[settings]([]byte(testSchema), data, "#Settings", "settings.cue"); err == nil {
		t.Fatal("expected type error")
	}
}

func TestDecode_OversizedInput(t *testing.T) {
	t.Parallel()

	data := make([]byte, maxInputBytes+1)
	if _, err := Decode[settings]([]byte(testSchema), data, "#Settings", "big.cue"); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{in: nil, want: ""},
		{in: []string{"cache_dir"}, want: "cache_dir"},
		{in: []string{"probes", "0", "args"}, want: "probes[0].args"},
	}
	for _, tt := range tests {
		if got := fieldPath(tt.in); got != tt.want {
			t.Errorf("fieldPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
