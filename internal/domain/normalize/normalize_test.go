package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Juan Pérez", "juan perez"},
		{"  GÓMEZ,   María  ", "gomez maria"},
		{"Núñez-Ibáñez", "nunez ibanez"},
		{"O'Higgins", "o higgins"},
		{"J.P. Morgan 3", "j p morgan"},
		{"", ""},
		{"123 456", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.raw), "Name(%q)", tt.raw)
	}
}

func TestTaxID(t *testing.T) {
	assert.Equal(t, "20123456789", TaxID("20-12345678-9"))
	assert.Equal(t, "20123456789", TaxID("CUIL 20.12345678.9"))
	assert.Equal(t, "", TaxID(""))
	assert.Equal(t, "", TaxID("sin cuil"))
}

func TestAmount(t *testing.T) {
	n, ok := Amount("5000.50", 1)
	require.True(t, ok)
	assert.Equal(t, 5000.50, n)

	n, ok = Amount("5000,50", 1)
	require.True(t, ok)
	assert.Equal(t, 5000.50, n)

	n, ok = Amount("-1 200,75", 1)
	require.True(t, ok)
	assert.Equal(t, -1200.75, n)

	n, ok = Amount("500", 100)
	require.True(t, ok)
	assert.Equal(t, 50000.0, n)

	_, ok = Amount("", 1)
	assert.False(t, ok)

	_, ok = Amount("abc", 1)
	assert.False(t, ok)
}

func TestWalletID(t *testing.T) {
	assert.Equal(t, "123456", WalletID("123456.0", 1))
	assert.Equal(t, "123456", WalletID(" 123 456 ", 1))
	assert.Equal(t, "100", WalletID("100", 1))
	assert.Equal(t, "123456.5", WalletID("123456.5", 1))
	assert.Equal(t, "12345600", WalletID("123456", 100))
}

func TestLocalDateTime(t *testing.T) {
	ts, ok := LocalDateTime("03/11/2025 14:30")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.November, 3, 14, 30, 0, 0, time.Local), ts)

	ts, ok = LocalDateTime("3/1/2025 09:05:42")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.January, 3, 9, 5, 42, 0, time.Local), ts)

	ts, ok = LocalDateTime("2025-11-03")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.November, 3, 0, 0, 0, 0, time.Local), ts)

	ts, ok = LocalDateTime("03/11/2025")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.November, 3, 0, 0, 0, 0, time.Local), ts)

	for _, raw := range []string{"", "not a date", "32/01/2025 00:00", "03/13/2025 10:00", "03/11/2025 25:00"} {
		_, ok := LocalDateTime(raw)
		assert.False(t, ok, "LocalDateTime(%q) should fail", raw)
	}
}
