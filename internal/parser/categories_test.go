package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), CategoryFile)
	require.NoError(t, os.WriteFile(path, []byte("1 -> Civil Rights\n\n2->Contracts \n"), 0o644))

	cats, err := Categories(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "Civil Rights", "2": "Contracts"}, cats)
}

func TestCategoriesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), CategoryFile)
	require.NoError(t, os.WriteFile(path, []byte("1 Civil Rights\n"), 0o644))

	_, err := Categories(path)
	assert.ErrorContains(t, err, ":1:")
}
