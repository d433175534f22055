package workers

import (
	"testing"
)

func TestMetadata(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		requested int
		expected  int
	}{
		{name: "default", requested: 0, expected: DefaultMetadata},
		{name: "negative requested", requested: -3, expected: DefaultMetadata},
		{name: "requested", requested: 2, expected: 2},
		{name: "requested above cap", requested: 1000, expected: MaxMetadata},
		{name: "env override wins", env: "3", requested: 10, expected: 3},
		{name: "env override capped", env: "500", expected: MaxMetadata},
		{name: "invalid env ignored", env: "many", requested: 4, expected: 4},
		{name: "zero env ignored", env: "0", expected: DefaultMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)

			if got := Metadata(tt.requested); got != tt.expected {
				t.Errorf("Metadata(%d) with %s=%q = %d, want %d",
					tt.requested, EnvOverride, tt.env, got, tt.expected)
			}
		})
	}
}
