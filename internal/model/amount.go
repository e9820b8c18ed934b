package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Amount is a non-negative 256-bit token quantity.
// It is a value type: copies never share state.
type Amount struct {
	v uint256.Int
}

// NewAmount builds an Amount from a uint64.
func NewAmount(x uint64) Amount {
	var a Amount
	a.v.SetUint64(x)
	return a
}

// AmountFromBytes interprets up to 32 big-endian bytes as an unsigned integer.
func AmountFromBytes(b []byte) Amount {
	var a Amount
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	a.v.SetBytes(b)
	return a
}

// AmountFromBig converts a big.Int, rejecting negative or oversized values.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount: %s", b.String())
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Amount{}, fmt.Errorf("amount overflows 256 bits: %s", b.String())
	}
	return Amount{v: *v}, nil
}

// ParseAmount parses a decimal or 0x-prefixed hex string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	b, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount: %q", s)
	}
	return AmountFromBig(b)
}

// MustAmount parses s and panics on error. Intended for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount {
	var out Amount
	out.v.Add(&a.v, &b.v)
	return out
}

func (a Amount) Mul(b Amount) Amount {
	var out Amount
	out.v.Mul(&a.v, &b.v)
	return out
}

// Sub returns a-b, floored at zero.
func (a Amount) Sub(b Amount) Amount {
	var out Amount
	if a.v.Lt(&b.v) {
		return out
	}
	out.v.Sub(&a.v, &b.v)
	return out
}

// MulDiv returns a*m/d with truncating division and a 512-bit intermediate.
// A zero divisor yields zero.
func (a Amount) MulDiv(m, d Amount) Amount {
	var out Amount
	if d.v.IsZero() {
		return out
	}
	out.v.MulDivOverflow(&a.v, &m.v, &d.v)
	return out
}

func (a Amount) Min(b Amount) Amount {
	if a.v.Lt(&b.v) {
		return a
	}
	return b
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) Lt(b Amount) bool {
	return a.v.Lt(&b.v)
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Uint64 returns the low 64 bits and whether the value fit.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

func (a Amount) Big() *big.Int {
	return a.v.ToBig()
}

// Bytes32 returns the big-endian 32-byte word.
func (a Amount) Bytes32() [32]byte {
	return a.v.Bytes32()
}

// Decimal scales the amount down by 10^decimals.
func (a Amount) Decimal(decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(a.v.ToBig(), -decimals)
}

func (a Amount) String() string {
	return a.v.ToBig().String()
}

// MarshalText encodes the amount as a decimal string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts decimal or 0x-prefixed hex.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// SumAmounts adds up a list of amounts.
func SumAmounts(values ...Amount) Amount {
	var total Amount
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
