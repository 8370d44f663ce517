package params

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query      string
		limit, off int
		page       int
	}{
		{"", DefaultLimit, 0, 1},
		{"limit=10&page=3", 10, 20, 3},
		{"limit=500", MaxLimit, 0, 1},
		{"limit=-1&page=0", DefaultLimit, 0, 1},
		{"limit=abc&page=x", DefaultLimit, 0, 1},
	}
	for _, tc := range cases {
		q, err := url.ParseQuery(tc.query)
		require.NoError(t, err)
		p := ParsePagination(q)
		assert.Equal(t, tc.limit, p.Limit, tc.query)
		assert.Equal(t, tc.off, p.Offset, tc.query)
		assert.Equal(t, tc.page, p.Page, tc.query)
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2}
	p.ComputeMeta(25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = Pagination{Limit: 10, Page: 1}
	p.ComputeMeta(10)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestOptionalInt64(t *testing.T) {
	v, err := OptionalInt64(url.Values{}, "municipality_id")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = OptionalInt64(url.Values{"municipality_id": {"7"}}, "municipality_id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), *v)

	_, err = OptionalInt64(url.Values{"municipality_id": {"0"}}, "municipality_id")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDate(t *testing.T) {
	def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	d, err := Date(url.Values{}, "from", def)
	require.NoError(t, err)
	assert.Equal(t, def, d)

	d, err = Date(url.Values{"from": {"2026-02-03"}}, "from", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), d)

	d, err = Date(url.Values{"from": {"2026-02-03T10:00:00+08:00"}}, "from", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 3, 2, 0, 0, 0, time.UTC), d.UTC())

	_, err = Date(url.Values{"from": {"yesterday"}}, "from", def)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 10, Limit(url.Values{}, 10, 100))
	assert.Equal(t, 100, Limit(url.Values{"limit": {"1000"}}, 10, 100))
	assert.Equal(t, 5, Limit(url.Values{"limit": {"5"}}, 10, 100))
}
