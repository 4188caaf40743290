package format

import (
	"testing"
	"time"
)

func TestHumanizeBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero bytes", bytes: 0, want: "0 B"},
		{name: "under 1KiB", bytes: 1023, want: "1023 B"},
		{name: "exactly 1KiB", bytes: 1024, want: "1.0 KiB"},
		{name: "1.5 KiB", bytes: 1536, want: "1.5 KiB"},
		{name: "50 MiB", bytes: 50 * 1024 * 1024, want: "50 MiB"},
		{name: "negative clamps", bytes: -5, want: "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HumanizeBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("HumanizeBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "10.00MiB", want: 10 * 1024 * 1024},
		{in: "~1.00GiB", want: 1024 * 1024 * 1024},
		{in: "512KiB", want: 512 * 1024},
		{in: "Unknown", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBytes(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBytes(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(125 * time.Second); got != "2:05" {
		t.Errorf("Duration(125s) = %q", got)
	}
	if got := Duration(3725 * time.Second); got != "1:02:05" {
		t.Errorf("Duration(3725s) = %q", got)
	}
}
