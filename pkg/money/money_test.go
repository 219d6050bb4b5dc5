package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1999:   "19.99",
		100000: "1000.00",
		-250:   "-2.50",
	}
	for cents, want := range cases {
		assert.Equal(t, want, Format(cents), "Format(%d)", cents)
	}
}

func TestFromCents(t *testing.T) {
	assert.True(t, FromCents(1999).Equal(decimal.RequireFromString("19.99")))
	assert.True(t, FromCents(0).IsZero())
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, int64(5997), LineTotal(1999, 3))
	assert.Zero(t, LineTotal(1999, 0))
}
