package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TxFee is the gas cost paid by a transaction.
type TxFee struct {
	GasPrice Amount           `json:"gasPrice"`
	Gas      Amount           `json:"gas"`
	GasUsed  *Amount          `json:"gasUsed,omitempty"`
	USD      *decimal.Decimal `json:"usd,omitempty"`
}

// Wei is the fee in wei: gas used, or the gas limit when usage is unknown, times gas price.
func (f TxFee) Wei() Amount {
	gas := f.Gas
	if f.GasUsed != nil {
		gas = *f.GasUsed
	}
	return gas.Mul(f.GasPrice)
}

func (f TxFee) String() string {
	pieces := make([]string, 0, 3)
	if f.GasUsed != nil {
		pieces = append(pieces, fmt.Sprintf("Gas Used: %s", f.GasUsed.String()))
	} else {
		pieces = append(pieces, fmt.Sprintf("Gas Limit: %s", f.Gas.String()))
	}
	pieces = append(pieces, fmt.Sprintf("Gas Price: %s GWei", f.GasPrice.Decimal(9).String()))
	if f.USD != nil {
		pieces = append(pieces, fmt.Sprintf("Est $%s", f.USD.String()))
	}
	return strings.Join(pieces, ", ")
}

// TxFeeTotal is a fee sum where every transaction is counted once.
type TxFeeTotal struct {
	Wei Amount           `json:"eth"`
	USD *decimal.Decimal `json:"usd,omitempty"`
}

func (t TxFeeTotal) String() string {
	out := fmt.Sprintf("Spent %s ETH in fees", t.Wei.Decimal(18).Round(6).String())
	if t.USD != nil {
		out += fmt.Sprintf(", Est $%s", t.USD.StringFixed(2))
	}
	return out
}
