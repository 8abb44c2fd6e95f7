package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestToMinor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"12.34", 1234},
		{"12.345", 1235}, // half-up
		{"12.344", 1234},
		{"0.005", 1},
		{"-3.50", -350},
		{"1000000", 100000000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money.ToMinor(dec(tt.in)), "ToMinor(%s)", tt.in)
	}
}

func TestParseMinor(t *testing.T) {
	m, err := money.ParseMinor("99.99")
	require.NoError(t, err)
	assert.Equal(t, int64(9999), m)

	_, err = money.ParseMinor("not-a-number")
	assert.Error(t, err)
}

func TestFromMinor(t *testing.T) {
	assert.Equal(t, "0.00", money.FromMinor(0))
	assert.Equal(t, "12.34", money.FromMinor(1234))
	assert.Equal(t, "0.05", money.FromMinor(5))
	assert.Equal(t, "-3.50", money.FromMinor(-350))
}

func TestMulQuantity(t *testing.T) {
	// 2 x 500.00
	assert.Equal(t, int64(100000), money.MulQuantity(dec("2"), 50000))
	// fractional quantity, rounds half-up once after the multiplication
	assert.Equal(t, int64(416), money.MulQuantity(dec("1.25"), 333)) // 416.25 -> 416
	assert.Equal(t, int64(50), money.MulQuantity(dec("0.333"), 150)) // 49.95 -> 50
	assert.Equal(t, int64(13), money.MulQuantity(dec("0.5"), 25))    // 12.5 -> 13
}

func TestRoundTrip(t *testing.T) {
	assert.Equal(t, "12.35", money.FromMinor(money.ToMinor(dec("12.345"))))
}
