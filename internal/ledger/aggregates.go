package ledger

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"daoTracker/internal/model"
)

func (l *Ledger) TotalVotingPower() model.Amount {
	var total model.Amount
	for _, w := range l.wallets {
		total = total.Add(w.VotingPower)
	}
	return total
}

func (l *Ledger) TotalShares() model.Amount {
	var total model.Amount
	for _, w := range l.wallets {
		total = total.Add(w.Shares)
	}
	return total
}

func (l *Ledger) TotalStaked() model.Amount {
	var total model.Amount
	for _, w := range l.wallets {
		total = total.Add(w.Staked)
	}
	return total
}

func (l *Ledger) TotalMinted() model.Amount {
	var total model.Amount
	for _, e := range l.epochs {
		total = total.Add(e.Minted)
	}
	return total
}

// EpochReward is one wallet's part of a single mint.
type EpochReward struct {
	Epoch  uint64       `json:"epoch"`
	Stake  model.Amount `json:"stake"`
	Reward model.Amount `json:"reward"`
}

// RewardHistory lists the epochs addr took part in, oldest first, with the
// reward each one paid it.
func (l *Ledger) RewardHistory(addr common.Address) []EpochReward {
	out := make([]EpochReward, 0)
	for index, e := range l.epochs {
		stake, ok := e.Stakes[addr]
		if !ok {
			continue
		}
		out = append(out, EpochReward{Epoch: index, Stake: stake, Reward: e.RewardOf(addr)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Epoch < out[j].Epoch })
	return out
}

// MemberTotals counts members matching a condition and sums one of their amounts.
type MemberTotals struct {
	Count int          `json:"count"`
	Total model.Amount `json:"total"`
}

// Vesting covers members flagged as vested, totalled by stake.
func (l *Ledger) Vesting() MemberTotals {
	var out MemberTotals
	for _, w := range l.wallets {
		if w.Vested {
			out.Count++
			out.Total = out.Total.Add(w.Staked)
		}
	}
	return out
}

// Delegating covers members with an outgoing delegation, totalled by shares.
func (l *Ledger) Delegating() MemberTotals {
	var out MemberTotals
	for _, w := range l.wallets {
		if w.Delegates != nil {
			out.Count++
			out.Total = out.Total.Add(w.Shares)
		}
	}
	return out
}

// WithdrawnCount counts members who deposited and took everything back out.
func (l *Ledger) WithdrawnCount() int {
	n := 0
	for _, w := range l.wallets {
		if !w.Deposited.IsZero() && w.Deposited.Cmp(w.Withdrawn) <= 0 {
			n++
		}
	}
	return n
}

// Percent returns part/total*100, or zero when total is zero.
func Percent(part, total model.Amount) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(part.Big(), 0).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromBigInt(total.Big(), 0))
}
