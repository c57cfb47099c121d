package common

import "testing"

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.com/a", want: "https://example.com/a"},
		{in: "  https://example.com/a,  ", want: "https://example.com/a"},
		{in: "[product](https://example.com/p)", want: "https://example.com/p"},
		{in: "<https://example.com/p>", want: "https://example.com/p"},
		{in: "ftp://example.com", wantErr: true},
		{in: "example.com", wantErr: true},
		{in: "https://exa mple.com", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := CleanURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("CleanURL(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("CleanURL(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
