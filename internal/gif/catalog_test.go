package gif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)
	require.Positive(t, c.Len())
	require.Len(t, c.Search(""), c.Len())
}

func TestCatalog_Search(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`
gifs:
  - {id: a, name: Dancing Cat, url: /a.gif}
  - {id: b, name: Thumbs Up, url: /b.gif}
  - {id: c, name: Cat Typing, url: /c.gif}
`))
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "blank matches all", query: "  ", want: []string{"a", "b", "c"}},
		{name: "case insensitive substring", query: "CAT", want: []string{"a", "c"}},
		{name: "inner substring", query: "umbs", want: []string{"b"}},
		{name: "no match", query: "dog", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ids := make([]string, 0)
			for _, g := range c.Search(tt.query) {
				ids = append(ids, g.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	g, err := c.Lookup("thumbs-up")
	require.NoError(t, err)
	require.Equal(t, "/gifs/thumbs-up.gif", g.URL)

	_, err = c.Lookup("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"malformed":    "gifs: [",
		"missing url":  "gifs:\n  - {id: a, name: A}\n",
		"duplicate id": "gifs:\n  - {id: a, name: A, url: /a}\n  - {id: a, name: B, url: /b}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gifs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gifs:\n  - {id: x, name: X, url: /x.gif}\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
