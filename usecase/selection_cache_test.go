package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"syllabus-crawler/usecase"
)

func TestSelectionCache_KeysAreIndependent(t *testing.T) {
	cache := usecase.NewSelectionCache()

	cache.Activate("lnscrape")
	cache.Record("Class 8 Science")
	assert.True(t, cache.Contains("Class 8 Science"))

	cache.Activate("generic")
	assert.Equal(t, "generic", cache.ActiveKey())
	assert.False(t, cache.Contains("Class 8 Science"))
	assert.Empty(t, cache.Selected())

	cache.Activate("lnscrape")
	assert.Equal(t, []string{"Class 8 Science"}, cache.Selected())
}

func TestSelectionCache_Reset(t *testing.T) {
	cache := usecase.NewSelectionCache()
	cache.Activate("lnscrape")
	cache.Record("a")

	cache.Reset()

	assert.Equal(t, "", cache.ActiveKey())
	cache.Activate("lnscrape")
	assert.False(t, cache.Contains("a"))
}
