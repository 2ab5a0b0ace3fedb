package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative integer quantity in the smallest token unit.
// Values are immutable: every operation returns a fresh Amount, so copies
// never share mutable state. The zero value is 0.
type Amount struct {
	v *big.Int
}

func ZeroAmount() Amount {
	return Amount{}
}

func AmountFromInt64(v int64) Amount {
	if v < 0 {
		panic(fmt.Sprintf("negative amount %d", v))
	}
	return Amount{v: big.NewInt(v)}
}

// AmountFromBig copies b. Negative values are rejected.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %s", b.String())
	}
	return Amount{v: new(big.Int).Set(b)}, nil
}

// ParseAmount parses a base-10 integer string. Empty input is treated as 0.
func ParseAmount(s string) (Amount, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Amount{}, nil
	}
	v, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %q", s)
	}
	return Amount{v: v}, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) int() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.int())
}

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.int(), b.int())}
}

// Sub returns a-b, clamped at zero.
func (a Amount) Sub(b Amount) Amount {
	d := new(big.Int).Sub(a.int(), b.int())
	if d.Sign() < 0 {
		return Amount{}
	}
	return Amount{v: d}
}

func (a Amount) Cmp(b Amount) int {
	return a.int().Cmp(b.int())
}

func (a Amount) IsZero() bool {
	return a.int().Sign() == 0
}

func MinAmount(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func (a Amount) String() string {
	return a.int().String()
}

// Display converts to a human-readable token quantity with the given number
// of decimals. Use only at presentation and valuation boundaries.
func (a Amount) Display(decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(a.int(), int32(-decimals))
}

// Value implements driver.Valuer; amounts are written as NUMERIC text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for NUMERIC(78,0) columns.
func (a *Amount) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("scan amount: negative value %d", v)
		}
		*a = Amount{v: big.NewInt(v)}
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
	// NUMERIC may come back as "123" or "123.0" depending on the column scale.
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		if strings.Trim(s[dot+1:], "0") != "" {
			return fmt.Errorf("scan amount: fractional value %q", s)
		}
		s = s[:dot]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Indexers occasionally send bare numbers.
		var n json.Number
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return fmt.Errorf("unmarshal amount: %w", err)
		}
		s = n.String()
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// NullAmount is an Amount that may be absent (e.g. an unset wallet threshold).
type NullAmount struct {
	Amount Amount
	Valid  bool
}

func (n NullAmount) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Amount.Value()
}

func (n *NullAmount) Scan(src any) error {
	if src == nil {
		*n = NullAmount{}
		return nil
	}
	if err := n.Amount.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
