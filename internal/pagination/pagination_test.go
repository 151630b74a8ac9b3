package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"zero", PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"kept", PageRequest{Page: 3, PageSize: 50}, PageRequest{Page: 3, PageSize: 50}},
		{"capped", PageRequest{Page: 2, PageSize: 1000}, PageRequest{Page: 2, PageSize: MaxPageSize}},
		{"negative", PageRequest{Page: -1, PageSize: -5}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Normalize()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]int{1, 2}, PageRequest{Page: 1, PageSize: 2}, 5)
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNext)
	assert.Equal(t, 2, PageRequest{Page: 2, PageSize: 2}.Offset())

	last := NewPageResponse([]int{5}, PageRequest{Page: 3, PageSize: 2}, 5)
	assert.False(t, last.HasNext)

	empty := NewPageResponse[int](nil, PageRequest{Page: 1, PageSize: 20}, 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
