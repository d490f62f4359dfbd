// Package u256 wraps holiman/uint256 into a value type that round-trips
// through SQL columns and JSON as a base-10 string.
package u256

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

var (
	ErrSyntax   = errors.New("u256: invalid decimal")
	ErrOverflow = errors.New("u256: arithmetic overflow")
)

// Int is an unsigned 256-bit integer. The zero value is 0.
type Int struct{ v uint256.Int }

func New(x uint64) Int {
	var out Int
	out.v.SetUint64(x)
	return out
}

// FromDecimal parses a base-10 string without sign or leading "+".
func FromDecimal(s string) (Int, error) {
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return Int{}, fmt.Errorf("%w %q", ErrSyntax, s)
	}
	return Int{v: *z}, nil
}

// MustDecimal is FromDecimal for constants and tests.
func MustDecimal(s string) Int {
	x, err := FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return x
}

func From(z *uint256.Int) Int {
	if z == nil {
		return Int{}
	}
	return Int{v: *z}
}

// Max returns 2^bits - 1.
func Max(bits uint) Int {
	if bits >= 256 {
		return Int{v: *new(uint256.Int).SetAllOne()}
	}
	one := uint256.NewInt(1)
	z := new(uint256.Int).Lsh(one, bits)
	z.Sub(z, one)
	return Int{v: *z}
}

// Big returns a copy of the underlying uint256.
func (x Int) Big() *uint256.Int {
	c := x.v
	return &c
}

func (x Int) IsZero() bool        { return x.v.IsZero() }
func (x Int) Cmp(y Int) int       { return x.v.Cmp(&y.v) }
func (x Int) Eq(y Int) bool       { return x.v.Eq(&y.v) }
func (x Int) Lt(y Int) bool       { return x.v.Lt(&y.v) }
func (x Int) BitLen() int         { return x.v.BitLen() }
func (x Int) FitsBits(n int) bool { return x.v.BitLen() <= n }
func (x Int) String() string      { return x.v.Dec() }

// Uint64 reports the value and whether it fits in 64 bits.
func (x Int) Uint64() (uint64, bool) { return x.v.Uint64(), x.v.IsUint64() }

func (x Int) Add(y Int) (Int, error) {
	var z Int
	if _, overflow := z.v.AddOverflow(&x.v, &y.v); overflow {
		return Int{}, ErrOverflow
	}
	return z, nil
}

// Sub fails when y > x.
func (x Int) Sub(y Int) (Int, error) {
	var z Int
	if _, underflow := z.v.SubOverflow(&x.v, &y.v); underflow {
		return Int{}, ErrOverflow
	}
	return z, nil
}

func (x Int) Mul(y Int) (Int, error) {
	var z Int
	if _, overflow := z.v.MulOverflow(&x.v, &y.v); overflow {
		return Int{}, ErrOverflow
	}
	return z, nil
}

// Div truncates toward zero. Division by zero yields 0.
func (x Int) Div(y Int) Int {
	var z Int
	z.v.Div(&x.v, &y.v)
	return z
}

// CeilDiv rounds the quotient up. Division by zero yields 0.
func (x Int) CeilDiv(y Int) Int {
	if y.IsZero() {
		return Int{}
	}
	var q, r uint256.Int
	q.DivMod(&x.v, &y.v, &r)
	if !r.IsZero() {
		q.AddUint64(&q, 1)
	}
	return Int{v: q}
}

func (x Int) Value() (driver.Value, error) { return x.v.Dec(), nil }

func (x *Int) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*x = Int{}
		return nil
	case string:
		return x.setDecimal(s)
	case []byte:
		return x.setDecimal(string(s))
	case int64:
		if s < 0 {
			return fmt.Errorf("u256: negative column value %d", s)
		}
		*x = New(uint64(s))
		return nil
	default:
		return fmt.Errorf("u256: cannot scan %T", src)
	}
}

func (x Int) MarshalJSON() ([]byte, error) { return json.Marshal(x.v.Dec()) }

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (x *Int) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrSyntax, b)
		}
		return x.setDecimal(s)
	}
	return x.setDecimal(string(b))
}

func (x *Int) setDecimal(s string) error {
	v, err := FromDecimal(s)
	if err != nil {
		return err
	}
	*x = v
	return nil
}
