package yaml

import (
	"testing"
)

// FuzzTargetParser tests the YAML parser against random/malformed inputs
// to detect crashes, panics, or unexpected behavior.
//
// Run with: go test -fuzz=FuzzTargetParser -fuzztime=30s
func FuzzTargetParser(f *testing.F) {
	f.Add([]byte(`releases:
  - name: rclone
    repo: rclone/rclone
    version: v1.66.0
    file_list:
      - "linux,amd64,zip:rclone/linux-amd64"
`))

	f.Add([]byte(`releases:
  - name: tool
    repo: owner/tool
    file_list:
      - keywords: [windows, amd64]
        path: "tool/{arch}"
      - "darwin"
`))

	f.Add([]byte(`releases:
  - name: a
    repo: a/a
  - name: a
    repo: b/b
`))

	f.Add([]byte(`releases: {}`))
	f.Add([]byte(`releases: [1, 2, 3]`))
	f.Add([]byte(`: : :`))
	f.Add([]byte{})

	parser := NewTargetParser()
	f.Fuzz(func(t *testing.T, data []byte) {
		targets, err := parser.Parse(data)
		if err != nil {
			return
		}
		seen := make(map[string]bool)
		for _, target := range targets {
			if target.Name == "" || target.Repo == "" {
				t.Errorf("accepted target without name or repo: %+v", target)
			}
			if seen[target.Name] {
				t.Errorf("accepted duplicate name %q", target.Name)
			}
			seen[target.Name] = true
			for _, f := range target.Files {
				if len(f.Keywords) == 0 {
					t.Errorf("accepted file spec without keywords: %+v", f)
				}
			}
		}
	})
}
