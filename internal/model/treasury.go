package model

import "github.com/ethereum/go-ethereum/common"

// Treasury captures ERC20 balances held by a DAO-controlled wallet.
type Treasury struct {
	Name      string            `json:"name"`
	Wallet    common.Address    `json:"wallet"`
	Balances  map[string]Amount `json:"balances"`
	Decimals  map[string]uint8  `json:"decimals"`
	UpdatedAt int64             `json:"updated_at"`
}

// Clone returns a deep copy.
func (t Treasury) Clone() Treasury {
	out := t
	out.Balances = make(map[string]Amount, len(t.Balances))
	for k, v := range t.Balances {
		out.Balances[k] = v
	}
	out.Decimals = make(map[string]uint8, len(t.Decimals))
	for k, v := range t.Decimals {
		out.Decimals[k] = v
	}
	return out
}
