package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/model"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("board")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "board-"))
	assert.Len(t, got, len("board-")+21)
}

func TestTemp_IsRecognizedAsTemporary(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		tmp := Temp()
		assert.True(t, model.IsTempID(tmp))
		assert.False(t, seen[tmp], "duplicate temp id %s", tmp)
		seen[tmp] = true
	}
}
