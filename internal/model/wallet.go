package model

import "github.com/ethereum/go-ethereum/common"

// Delegation is the single outgoing delegation of a wallet.
type Delegation struct {
	To     common.Address `json:"to"`
	Shares Amount         `json:"shares"`
}

// ScheduledUnstake is a pending unstake that has not been finalized.
type ScheduledUnstake struct {
	Amount Amount `json:"amount"`
	Shares Amount `json:"shares"`
	Time   uint64 `json:"time"`
}

// Wallet is a DAO member as derived from folded events.
type Wallet struct {
	Address          common.Address            `json:"address"`
	ENS              string                    `json:"ens,omitempty"`
	Deposited        Amount                    `json:"deposited"`
	Withdrawn        Amount                    `json:"withdrawn"`
	Staked           Amount                    `json:"staked"`
	Shares           Amount                    `json:"shares"`
	Delegates        *Delegation               `json:"delegates,omitempty"`
	Delegated        map[common.Address]Amount `json:"delegated"`
	VotingPower      Amount                    `json:"voting_power"`
	Votes            uint64                    `json:"votes"`
	Rewards          Amount                    `json:"rewards"`
	CreatedAt        uint64                    `json:"created_at"`
	UpdatedAt        uint64                    `json:"updated_at"`
	Vested           bool                      `json:"vested"`
	Supporter        bool                      `json:"supporter"`
	ScheduledUnstake *ScheduledUnstake         `json:"scheduled_unstake,omitempty"`
}

func NewWallet(address common.Address, ts uint64) *Wallet {
	return &Wallet{
		Address:   address,
		Delegated: make(map[common.Address]Amount),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// DelegatedTotal sums incoming delegated shares.
func (w *Wallet) DelegatedTotal() Amount {
	var total Amount
	for _, shares := range w.Delegated {
		total = total.Add(shares)
	}
	return total
}

// ComputeVotingPower applies the delegation rule: a delegating wallet
// keeps only what was delegated to it.
func (w *Wallet) ComputeVotingPower() Amount {
	own := w.Shares
	if w.Delegates != nil {
		own = Amount{}
	}
	return own.Add(w.DelegatedTotal())
}

// Clone returns a deep copy.
func (w Wallet) Clone() Wallet {
	out := w
	out.Delegated = make(map[common.Address]Amount, len(w.Delegated))
	for k, v := range w.Delegated {
		out.Delegated[k] = v
	}
	if w.Delegates != nil {
		d := *w.Delegates
		out.Delegates = &d
	}
	if w.ScheduledUnstake != nil {
		s := *w.ScheduledUnstake
		out.ScheduledUnstake = &s
	}
	return out
}
