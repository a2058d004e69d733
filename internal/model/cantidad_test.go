package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCantidad(t *testing.T) {
	tests := []struct {
		in     string
		monto  string
		unidad string
	}{
		{"3 kg", "3", "kg"},
		{"12 un", "12", "un"},
		{"2.5kg", "2.5", "kg"},
		{"  0.145 l ", "0.145", "l"},
		{"7", "7", ""},
		{"4.", "4", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseCantidad(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.monto, c.Monto.String())
			assert.Equal(t, tt.unidad, c.Unidad)
		})
	}
}

func TestParseCantidadSinNumero(t *testing.T) {
	_, err := ParseCantidad("kg")
	assert.ErrorIs(t, err, ErrCantidadTexto)

	_, err = ParseCantidad("")
	assert.ErrorIs(t, err, ErrCantidadTexto)
}

func TestCantidadSumarConservaUnidad(t *testing.T) {
	c := NuevaCantidad(decimal.NewFromInt(2), "kg")
	c = c.Sumar(decimal.NewFromInt(2))
	assert.Equal(t, "4 kg", c.String())
}

func TestCantidadScanTolerante(t *testing.T) {
	var c Cantidad
	require.NoError(t, c.Scan([]byte("1.5 kg")))
	assert.Equal(t, "1.5 kg", c.String())

	require.NoError(t, c.Scan("sin dato"))
	assert.True(t, c.Monto.IsZero())

	assert.Error(t, c.Scan(42))
}

func TestCantidadJSON(t *testing.T) {
	c := NuevaCantidad(decimal.RequireFromString("2.25"), "un")
	b, err := c.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"2.25 un"`, string(b))

	var back Cantidad
	require.NoError(t, back.UnmarshalJSON(b))
	assert.True(t, back.Monto.Equal(c.Monto))
	assert.Equal(t, "un", back.Unidad)
}
