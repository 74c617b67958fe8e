package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/devconsole/pkg/models"
)

func TestDefault(t *testing.T) {
	r := Default()
	all := r.All()
	require.Len(t, all, 7)
	assert.Equal(t, "home-hero-click", all[0].ID)
	assert.Equal(t, TerminalReadme, all[6].ID)

	d, ok := r.Get("contact-form")
	require.True(t, ok)
	assert.Equal(t, 20, d.Points)
	assert.Equal(t, "Contact: Submit form", d.Label)

	assert.Equal(t, 100, r.TotalPoints())
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	r, err := Load("/nonexistent/path/that/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Len(t, r.All(), len(Default().All()))
}

func TestLoadValidYAML(t *testing.T) {
	const yamlContent = `
eggs:
  - id: first
    points: 5
    label: First
  - id: second
    points: 7
    label: Second
`
	path := filepath.Join(t.TempDir(), "eggs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0600))

	r, err := Load(path)
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].ID)
	assert.Equal(t, "second", all[1].ID)
	assert.Equal(t, 12, r.TotalPoints())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "syntax", yaml: "eggs: [unclosed"},
		{name: "empty id", yaml: "eggs:\n  - id: \"\"\n    points: 1\n"},
		{name: "zero points", yaml: "eggs:\n  - id: a\n    points: 0\n"},
		{name: "duplicate", yaml: "eggs:\n  - id: a\n    points: 1\n  - id: a\n    points: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	r := Default()

	d, err := r.Lookup("resume-download")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Points)

	_, err = r.Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknownEgg))
}

func TestProgress(t *testing.T) {
	r := Default()
	eggs := []models.Egg{
		{ID: "home-title-click", Points: 15, Timestamp: 42},
		{ID: "record-123", Points: 3, Timestamp: 43},
	}

	progress := r.Progress(eggs)
	require.Len(t, progress, 7)

	collected := 0
	for _, p := range progress {
		if p.Collected {
			collected++
			assert.Equal(t, "home-title-click", p.ID)
			assert.Equal(t, int64(42), p.DiscoveredAt)
		}
	}
	assert.Equal(t, 1, collected)
}
