package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		in          PageRequest
		max         int
		wantPage    int
		wantPerPage int
	}{
		{"defaults", PageRequest{}, 0, 1, 10},
		{"explicit", PageRequest{Page: 3, PerPage: 5}, 0, 3, 5},
		{"clamped to default max", PageRequest{Page: 1, PerPage: 1000}, 0, 1, MaxPerPage},
		{"clamped to configured max", PageRequest{Page: 2, PerPage: 60}, 50, 2, 50},
		{"at max", PageRequest{PerPage: 100}, 100, 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize(tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPerPage, got.PerPage)
		})
	}
}

func TestPageRequest_NormalizeRejects(t *testing.T) {
	for _, in := range []PageRequest{
		{Page: -1},
		{PerPage: -5},
		{Page: 1 << 40},
	} {
		_, err := in.Normalize(0)
		assert.True(t, errors.Is(err, ErrInvalidInput), "Normalize(%+v) = %v", in, err)
	}
}

func TestPageRequest_Window(t *testing.T) {
	limit, offset := PageRequest{Page: 1, PerPage: 10}.Window()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	limit, offset = PageRequest{Page: 4, PerPage: 25}.Window()
	assert.Equal(t, 25, limit)
	assert.Equal(t, 75, offset)
}
