package messages

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltIn(t *testing.T) {
	pools, err := Load("")
	require.NoError(t, err)

	assert.Contains(t, pools.Welcome, "Welcome, traveler!")
	assert.NotEmpty(t, pools.Throttled)
	assert.NotEmpty(t, pools.Exhausted)
	assert.NotEmpty(t, pools.Filler)
	assert.Contains(t, pools.Throttled[0], "the turtle moves slowly")
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	content := `
throttled:
  - "  tomorrow, please  "
  - ""
filler:
  - hi
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	pools, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"tomorrow, please"}, pools.Throttled)
	assert.Equal(t, []string{"hi"}, pools.Filler)
	assert.NotEmpty(t, pools.Exhausted, "unset pools keep the built-in lines")
	assert.Contains(t, pools.Welcome, "Welcome, traveler!")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("exhausted: [\"\", \"  \"]\n"), 0o644))

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("filler: [unterminated\n"), 0o644))

	for _, path := range []string{empty, broken, filepath.Join(dir, "missing.yaml")} {
		_, err := Load(path)
		assert.Error(t, err, path)
	}
}

func TestService_Picks(t *testing.T) {
	pools := Pools{
		Welcome:   "hello",
		Throttled: []string{"t1", "t2"},
		Exhausted: []string{"e1", "e2", "e3"},
		Filler:    []string{"f1"},
	}
	svc := NewService(pools, rand.New(rand.NewPCG(3, 4)))

	assert.Equal(t, "hello", svc.Welcome())
	assert.Equal(t, "f1", svc.Filler())

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		line := svc.Throttled()
		assert.Contains(t, pools.Throttled, line)
		seen[line] = true

		assert.Contains(t, pools.Exhausted, svc.Exhausted())
	}
	assert.Len(t, seen, 2)
}
