package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
)

func TestPaginationParams_Validate(t *testing.T) {
	p := &pagination.PaginationParams{Page: 0, PerPage: 0}
	p.Validate()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PerPage)

	p = &pagination.PaginationParams{Page: 3, PerPage: 500}
	p.Validate()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PerPage)
}

func TestPaginationParams_Offset(t *testing.T) {
	p := &pagination.PaginationParams{Page: 3, PerPage: 20}
	assert.Equal(t, 40, p.Offset())
}

func TestNewPagination(t *testing.T) {
	pag := pagination.NewPagination(2, 15, 31)
	assert.Equal(t, 2, pag.CurrentPage)
	assert.Equal(t, 3, pag.TotalPages)
	assert.True(t, pag.HasNext)
	assert.True(t, pag.HasPrev)

	last := pagination.NewPagination(3, 15, 31)
	assert.False(t, last.HasNext)

	empty := pagination.NewPagination(1, 15, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
