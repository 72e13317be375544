package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrowth(t *testing.T) {
	assert.Equal(t, 0.0, growth(0, 0))
	assert.Equal(t, 100.0, growth(10, 0), "anything over an empty window reads as 100%")
	assert.Equal(t, 100.0, growth(20, 10))
	assert.Equal(t, -50.0, growth(5, 10))
	assert.Equal(t, 0.0, growth(10, 10))
}

func TestNewPageMeta(t *testing.T) {
	m := newPageMeta(2, 10, 25)
	assert.Equal(t, 2, m.Page)
	assert.Equal(t, 10, m.Limit)
	assert.Equal(t, uint64(25), m.Total)
	assert.Equal(t, uint64(3), m.Pages)

	assert.Equal(t, uint64(0), newPageMeta(1, 10, 0).Pages)
	assert.Equal(t, uint64(1), newPageMeta(1, 10, 10).Pages)
}
