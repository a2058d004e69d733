package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCantidadTexto is returned when a quantity text has no leading number.
var ErrCantidadTexto = errors.New("cantidad sin valor numérico")

var cantidadRe = regexp.MustCompile(`^\s*([+-]?(?:\d+(?:\.\d*)?|\.\d+))\s*(.*?)\s*$`)

// Cantidad is an order quantity: a numeric amount plus a unit abbreviation.
// It is stored in the backend as a single text column ("3 kg", "12 un") and
// parsed only at that boundary.
type Cantidad struct {
	Monto  decimal.Decimal
	Unidad string
}

// NuevaCantidad builds a Cantidad from an amount and unit abbreviation.
func NuevaCantidad(monto decimal.Decimal, unidad string) Cantidad {
	return Cantidad{Monto: monto, Unidad: strings.TrimSpace(unidad)}
}

// ParseCantidad reads the leading numeric portion of s as the amount and the
// remainder as the unit.
func ParseCantidad(s string) (Cantidad, error) {
	m := cantidadRe.FindStringSubmatch(s)
	if m == nil {
		return Cantidad{}, fmt.Errorf("%w: %q", ErrCantidadTexto, s)
	}
	monto, err := decimal.NewFromString(strings.TrimSuffix(m[1], "."))
	if err != nil {
		return Cantidad{}, fmt.Errorf("%w: %q", ErrCantidadTexto, s)
	}
	return Cantidad{Monto: monto, Unidad: m[2]}, nil
}

// Sumar returns c + monto, keeping c's unit.
func (c Cantidad) Sumar(monto decimal.Decimal) Cantidad {
	return Cantidad{Monto: c.Monto.Add(monto), Unidad: c.Unidad}
}

func (c Cantidad) String() string {
	if c.Unidad == "" {
		return c.Monto.String()
	}
	return c.Monto.String() + " " + c.Unidad
}

// Value implements driver.Valuer.
func (c Cantidad) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner. Text without a leading number scans as a zero
// amount so that one bad row cannot break a whole listing.
func (c *Cantidad) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*c = Cantidad{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cantidad: tipo no soportado %T", src)
	}
	parsed, err := ParseCantidad(s)
	if err != nil {
		*c = Cantidad{Monto: decimal.Zero, Unidad: strings.TrimSpace(s)}
		return nil
	}
	*c = parsed
	return nil
}

func (c Cantidad) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cantidad) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCantidad(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
