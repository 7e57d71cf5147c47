package pagination

import (
	"net/http"
	"testing"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		requested string
		perPage   int
		count     int
		number    int
		numPages  int
		hasNext   bool
		hasPrev   bool
	}{
		{"defaults to first page", "", 5, 12, 1, 3, true, false},
		{"middle page", "2", 5, 12, 2, 3, true, true},
		{"last keyword", "last", 5, 12, 3, 3, false, true},
		{"exact multiple", "2", 5, 10, 2, 2, false, true},
		{"empty result set", "", 5, 0, 1, 1, false, false},
		{"explicit first page of empty set", "1", 10, 0, 1, 1, false, false},
		{"last of empty set", "last", 10, 0, 1, 1, false, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			page, err := New(tc.requested, tc.perPage, tc.count)
			require.NoError(t, err)
			assert.Equal(t, tc.number, page.Number)
			assert.Equal(t, tc.numPages, page.NumPages)
			assert.Equal(t, tc.hasNext, page.HasNext)
			assert.Equal(t, tc.hasPrev, page.HasPrevious)
			assert.Equal(t, tc.count, page.Count)
		})
	}
}

func TestNew_OutOfRange(t *testing.T) {
	t.Parallel()

	for _, requested := range []string{"0", "-1", "4", "abc", "2"} {
		count := 12
		if requested == "2" {
			count = 0
		}
		_, err := New(requested, 5, count)
		require.Error(t, err, requested)

		var e *errcodes.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, http.StatusNotFound, e.HTTPCode)
	}
}

func TestPage_Offset(t *testing.T) {
	t.Parallel()

	page, err := New("3", 5, 12)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Offset())
	assert.Equal(t, 5, page.Limit())
	assert.True(t, page.IsPaginated())
}

func TestResponse(t *testing.T) {
	t.Parallel()

	page, err := New("", 5, 3)
	require.NoError(t, err)

	body := Response("book", []string{"a", "b", "c"}, page)
	assert.Equal(t, []string{"a", "b", "c"}, body["book_list"])
	assert.Equal(t, false, body["is_paginated"])
	assert.Equal(t, page, body["page_obj"])
}
