package services

import (
	"testing"

	"github.com/ochairo/binsync/internal/domain/entities"
)

func assetsNamed(names ...string) []entities.Asset {
	assets := make([]entities.Asset, len(names))
	for i, n := range names {
		assets[i] = entities.Asset{Name: n, DownloadURL: "https://example.com/" + n}
	}
	return assets
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name      string
		assets    []string
		keywords  []string
		wantName  string
		wantScore int
	}{
		{
			name:      "highest score wins",
			assets:    []string{"tool-v1.1-darwin-arm64.tar.gz", "tool-v1.1-linux-x64.tar.gz"},
			keywords:  []string{"linux", "x64"},
			wantName:  "tool-v1.1-linux-x64.tar.gz",
			wantScore: 2,
		},
		{
			name:      "first seen wins a tie",
			assets:    []string{"tool-linux-amd64.zip", "tool-linux-amd64.tar.gz"},
			keywords:  []string{"linux", "amd64"},
			wantName:  "tool-linux-amd64.zip",
			wantScore: 2,
		},
		{
			name:      "later higher score replaces earlier",
			assets:    []string{"tool-linux-arm64.tar.gz", "tool-linux-amd64.tar.gz"},
			keywords:  []string{"linux", "amd64"},
			wantName:  "tool-linux-amd64.tar.gz",
			wantScore: 2,
		},
		{
			name:     "zero score never matches",
			assets:   []string{"tool-darwin-arm64.tar.gz", "checksums.txt"},
			keywords: []string{"windows", "x64"},
		},
		{
			name:     "no assets",
			keywords: []string{"linux"},
		},
		{
			name:      "case insensitive",
			assets:    []string{"Tool-Linux-X86_64.AppImage"},
			keywords:  []string{"linux", "x86_64"},
			wantName:  "Tool-Linux-X86_64.AppImage",
			wantScore: 2,
		},
		{
			name:      "substring containment, not tokens",
			assets:    []string{"webarmour.tar.gz"},
			keywords:  []string{"arm"},
			wantName:  "webarmour.tar.gz",
			wantScore: 1,
		},
		{
			name:      "more keywords beat a more exact name",
			assets:    []string{"tool-linux.tar.gz", "tool-linux-musl-static.tar.gz"},
			keywords:  []string{"linux", "musl", "static"},
			wantName:  "tool-linux-musl-static.tar.gz",
			wantScore: 3,
		},
		{
			name:     "empty keywords are ignored",
			assets:   []string{"tool.tar.gz"},
			keywords: []string{"", "  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBest(assetsNamed(tt.assets...), tt.keywords)

			if tt.wantName == "" {
				if got.Found() {
					t.Fatalf("SelectBest() = %s, want no match", got.Asset.Name)
				}
				if got.Score != 0 {
					t.Errorf("Score = %d, want 0", got.Score)
				}
				return
			}

			if !got.Found() {
				t.Fatalf("SelectBest() found nothing, want %s", tt.wantName)
			}
			if got.Asset.Name != tt.wantName {
				t.Errorf("SelectBest() = %s, want %s", got.Asset.Name, tt.wantName)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
		})
	}
}

// The selected asset must be the earliest one carrying the maximum score.
func TestSelectBest_MaximumEarliest(t *testing.T) {
	names := []string{
		"a-linux.tar.gz",
		"b-linux-x64.tar.gz",
		"c-darwin-x64.tar.gz",
		"d-linux-x64.zip",
		"e.txt",
	}
	keywords := []string{"linux", "x64", "tar"}
	assets := assetsNamed(names...)

	got := SelectBest(assets, keywords)

	lowered := normalizeKeywords(keywords)
	maxScore, firstIdx := 0, -1
	for i, a := range assets {
		if s := Score(a.Name, lowered); s > maxScore {
			maxScore, firstIdx = s, i
		}
	}

	if got.Asset != &assets[firstIdx] {
		t.Errorf("SelectBest() = %v, want %s", got.Asset, names[firstIdx])
	}
	if got.Score != maxScore {
		t.Errorf("Score = %d, want %d", got.Score, maxScore)
	}
}

func TestSelectBest_ReturnsPointerIntoSlice(t *testing.T) {
	assets := assetsNamed("tool-linux.tar.gz")
	got := SelectBest(assets, []string{"linux"})
	if got.Asset != &assets[0] {
		t.Error("expected result to reference the input asset")
	}
}
