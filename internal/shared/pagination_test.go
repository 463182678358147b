package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 95)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 0, p.Offset())
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 25, 100)
	assert.Equal(t, 50, p.Offset())
	assert.Equal(t, 4, p.TotalPages)
}

func TestPageParamsClampsPerPage(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=2&per_page=9999", nil)
	page, perPage := PageParams(r)
	assert.Equal(t, 2, page)
	assert.Equal(t, MaxPerPage, perPage)
}

func TestPageParamsIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=-4&per_page=abc", nil)
	page, perPage := PageParams(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPerPage, perPage)
}
