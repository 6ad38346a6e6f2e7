package services

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		recorded string
		latest   string
		want     UpdateDecision
	}{
		{"same tag", "v1.0", "v1.0", UpToDate},
		{"new tag", "v1.0", "v1.1", UpdateAvailable},
		{"never synced", "", "v1.0", UpdateAvailable},
		{"rollback is still a change", "v2.0", "v1.9", UpdateAvailable},
		{"no semver normalization", "1.0", "v1.0", UpdateAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.recorded, tt.latest); got != tt.want {
				t.Errorf("Decide(%q, %q) = %v, want %v", tt.recorded, tt.latest, got, tt.want)
			}
		})
	}
}
