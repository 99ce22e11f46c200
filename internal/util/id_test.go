package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID("a.txt", 0, 1, 3)
	assert.Len(t, a, 40)
	assert.Equal(t, a, GenerateID("a.txt", 0, 1, 3))
	assert.NotEqual(t, a, GenerateID("a.txt", 1, 1, 3))
	assert.NotEqual(t, a, GenerateID("b.txt", 0, 1, 3))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("m", "x"), ContentHash("m", "x"))
	assert.NotEqual(t, ContentHash("m1", "x"), ContentHash("m2", "x"))
	assert.NotEqual(t, ContentHash("m", "ab"), ContentHash("ma", "b"))
}
