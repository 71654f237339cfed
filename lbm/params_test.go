package lbm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadParams(t *testing.T) {
	path := writeFile(t, "input.params", "128\n256\n1000\n128\n0.1\n0.005\n1.7\n")

	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, Params{
		Nx:          128,
		Ny:          256,
		MaxIters:    1000,
		ReynoldsDim: 128,
		Density:     0.1,
		Accel:       0.005,
		Omega:       1.7,
	}, p)
}

func TestLoadParamsTruncated(t *testing.T) {
	path := writeFile(t, "input.params", "128\n256\n")

	_, err := LoadParams(path)
	assert.Error(t, err)
}

func TestLoadObstacles(t *testing.T) {
	p := Params{Nx: 8, Ny: 8}
	path := writeFile(t, "obstacles.dat", "0 0 1\n3 5 1\n7 7 1\n")

	mask, err := LoadObstacles(path, p)
	require.NoError(t, err)
	assert.True(t, mask.Blocked(0, 0))
	assert.True(t, mask.Blocked(3, 5))
	assert.True(t, mask.Blocked(7, 7))
	assert.False(t, mask.Blocked(5, 3))
}

func TestLoadObstaclesRejectsBadInput(t *testing.T) {
	p := Params{Nx: 8, Ny: 8}

	for name, content := range map[string]string{
		"x out of range": "8 0 1\n",
		"y out of range": "0 -1 1\n",
		"bad flag":       "1 1 2\n",
	} {
		path := writeFile(t, "obstacles.dat", content)
		_, err := LoadObstacles(path, p)
		assert.Error(t, err, name)
	}
}
