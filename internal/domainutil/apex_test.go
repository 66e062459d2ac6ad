package domainutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lower and trim", "  WWW.Example.COM ", "www.example.com", false},
		{"trailing dot", "example.com.", "example.com", false},
		{"strip port", "example.com:443", "example.com", false},
		{"empty", "   ", "", true},
		{"ipv4", "10.0.0.1", "", true},
		{"ipv6 brackets", "[::1]", "", true},
		{"wildcard not allowed", "*.example.com", "", true},
		{"no dot", "localhost", "", true},
		{"leading dash", "-bad.com", "", true},
		{"empty label", "a..com", "", true},
		{"underscore", "a_b.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LocalHost:3000", "localhost"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[::1]:8080", "::1"},
		{"::1", "::1"},
		{"www.imobiliaria.com.br.", "www.imobiliaria.com.br"},
	}
	for _, tt := range tests {
		if got := NormalizeHost(tt.input); got != tt.want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitSubdomain(t *testing.T) {
	tests := []struct {
		input   string
		wantSub string
		wantApx string
	}{
		{"www.imobiliaria.com.br", "www", "imobiliaria.com.br"},
		{"imobiliaria.com.br", "", "imobiliaria.com.br"},
		{"a.b.example.co.uk", "a.b", "example.co.uk"},
	}
	for _, tt := range tests {
		sub, apex, err := SplitSubdomain(tt.input)
		if err != nil {
			t.Fatalf("SplitSubdomain(%q) error: %v", tt.input, err)
		}
		if sub != tt.wantSub || apex != tt.wantApx {
			t.Errorf("SplitSubdomain(%q) = (%q, %q), want (%q, %q)", tt.input, sub, apex, tt.wantSub, tt.wantApx)
		}
	}
}
