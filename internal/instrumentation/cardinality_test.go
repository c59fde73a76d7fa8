package instrumentation

import "testing"

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "plain address", email: "jane@example.com", want: "example.com"},
		{name: "gmail address", email: "user@gmail.com", want: "gmail.com"},
		{name: "display name form", email: "Jane Doe <jane@example.com>", want: "example.com"},
		{name: "no at sign", email: "invalid", want: "unknown"},
		{name: "empty", email: "", want: "unknown"},
		{name: "trailing at", email: "user@", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractUserDomain(tt.email); got != tt.want {
				t.Errorf("ExtractUserDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
