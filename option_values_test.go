package condarun

import (
	"testing"
)

func TestOptionsString(t *testing.T) {
	opts := NewOptions().Set("s", "v").Set("empty", "").Set("b", true)
	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{"present", "s", "v", true},
		{"empty_value", "empty", "", true},
		{"wrong_type", "b", "", false},
		{"absent", "k", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := opts.String(tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("String(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestOptionsBool(t *testing.T) {
	opts := NewOptions().Set("t", true).Set("f", false).Set("s", "true")
	tests := []struct {
		name   string
		key    string
		want   bool
		wantOK bool
	}{
		{"true", "t", true, true},
		{"false", "f", false, true},
		{"string_is_not_bool", "s", false, false},
		{"absent", "k", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := opts.Bool(tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Bool(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	var nilOpts *Options
	if _, ok := nilOpts.Bool("t"); ok {
		t.Error("nil Options must report absent")
	}
}

func TestOptionsStrings(t *testing.T) {
	opts := NewOptions().
		Set("list", []string{"a", "b"}).
		Set("mixed", []any{"k", 3}).
		Set("scalar", "a")

	got, ok := opts.Strings("list")
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Strings(list) = (%v, %v)", got, ok)
	}
	got[0] = "changed"
	if again, _ := opts.Strings("list"); again[0] != "a" {
		t.Error("Strings must return a copy")
	}

	got, ok = opts.Strings("mixed")
	if !ok || len(got) != 2 || got[1] != "3" {
		t.Errorf("Strings(mixed) = (%v, %v)", got, ok)
	}
	if _, ok := opts.Strings("scalar"); ok {
		t.Error("Strings(scalar) must report ok=false")
	}
}

func TestOptionsTruthy(t *testing.T) {
	opts := NewOptions().
		Set("nil", nil).
		Set("false", false).
		Set("true", true).
		Set("empty", "").
		Set("str", "x").
		Set("list", []string{}).
		Set("zero", 0)
	tests := []struct {
		key  string
		want bool
	}{
		{"absent", false},
		{"nil", false},
		{"false", false},
		{"empty", false},
		{"true", true},
		{"str", true},
		{"list", true},
		{"zero", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := opts.Truthy(tt.key); got != tt.want {
				t.Errorf("Truthy(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
