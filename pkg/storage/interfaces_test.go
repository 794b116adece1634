package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, 20, cfg.MaxConns)
	assert.Equal(t, 2, cfg.MinConns)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.Migrate)
	assert.Empty(t, cfg.ReplicaDSNs)
}

func TestSortOrder(t *testing.T) {
	tests := []struct {
		in       string
		expected SortOrder
		str      string
	}{
		{"title", Asc("title"), "title ASC"},
		{"-created_at", Desc("created_at"), "created_at DESC"},
		{"-", Asc("-"), "- ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseSortOrder(tt.in)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestCreationOrder(t *testing.T) {
	order := CreationOrder()
	assert.Equal(t, Asc("id"), order.Paths)
	assert.Equal(t, Asc("id"), order.Verbs)
	assert.Equal(t, Asc("id"), order.Models)
}

func TestErrUnsortable(t *testing.T) {
	err := &ErrUnsortable{Entity: "paths", Field: "secret"}
	assert.Equal(t, `cannot sort paths by "secret"`, err.Error())
}
