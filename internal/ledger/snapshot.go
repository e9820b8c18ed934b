package ledger

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"daoTracker/internal/action"
	"daoTracker/internal/events"
	"daoTracker/internal/model"
)

// Snapshot is a self-contained copy of the ledger. It shares no mutable state
// with the ledger it came from and serializes deterministically.
type Snapshot struct {
	ChainID          uint64                                   `json:"chain_id"`
	LastBlock        uint64                                   `json:"last_block"`
	Wallets          map[common.Address]model.Wallet          `json:"wallets"`
	Votings          map[uint64]model.Voting                  `json:"votings"`
	Epochs           map[uint64]model.Epoch                   `json:"epochs"`
	WalletEvents     map[common.Address][]events.OnChainEvent `json:"wallet_events"`
	VotingEvents     map[uint64][]events.OnChainEvent         `json:"voting_events"`
	EpochIndex       uint64                                   `json:"epoch_index"`
	APR              decimal.Decimal                          `json:"apr"`
	StakeTarget      model.Amount                             `json:"stake_target"`
	DaoApps          *events.SetDaoApps                       `json:"dao_apps,omitempty"`
	Erc20Addresses   []common.Address                         `json:"erc20_addresses"`
	VestingAddresses []common.Address                         `json:"vesting_addresses"`
	Treasuries       map[string]model.Treasury                `json:"treasuries"`
	PoolInfo         *model.PoolInfo                          `json:"pool_info,omitempty"`
	Circulation      *model.Circulation                       `json:"circulation,omitempty"`
	Grants           map[common.Address]uint64                `json:"grants"`
	Summary          Summary                                  `json:"summary"`
}

// Summary holds the aggregate queries evaluated when the snapshot was taken.
type Summary struct {
	TotalVotingPower model.Amount `json:"total_voting_power"`
	TotalShares      model.Amount `json:"total_shares"`
	TotalStaked      model.Amount `json:"total_staked"`
	TotalMinted      model.Amount `json:"total_minted"`
	Vesting          MemberTotals `json:"vesting"`
	Delegating       MemberTotals `json:"delegating"`
	Withdrawn        int          `json:"withdrawn"`
}

func (l *Ledger) Snapshot() *Snapshot {
	s := &Snapshot{
		ChainID:          l.chainID,
		LastBlock:        l.lastBlock,
		Wallets:          make(map[common.Address]model.Wallet, len(l.wallets)),
		Votings:          make(map[uint64]model.Voting, len(l.votings)),
		Epochs:           make(map[uint64]model.Epoch, len(l.epochs)),
		WalletEvents:     make(map[common.Address][]events.OnChainEvent, len(l.walletEvents)),
		VotingEvents:     make(map[uint64][]events.OnChainEvent, len(l.votingEvents)),
		EpochIndex:       l.epochIndex,
		APR:              l.apr,
		StakeTarget:      l.stakeTarget,
		Erc20Addresses:   append([]common.Address{}, l.erc20Addresses...),
		VestingAddresses: append([]common.Address{}, l.vestingAddresses...),
		Treasuries:       make(map[string]model.Treasury, len(l.treasuries)),
		Grants:           make(map[common.Address]uint64, len(l.grants)),
		Summary: Summary{
			TotalVotingPower: l.TotalVotingPower(),
			TotalShares:      l.TotalShares(),
			TotalStaked:      l.TotalStaked(),
			TotalMinted:      l.TotalMinted(),
			Vesting:          l.Vesting(),
			Delegating:       l.Delegating(),
			Withdrawn:        l.WithdrawnCount(),
		},
	}
	for k, w := range l.wallets {
		s.Wallets[k] = w.Clone()
	}
	for k, v := range l.votings {
		s.Votings[k] = v.Clone()
	}
	for k, e := range l.epochs {
		s.Epochs[k] = e.Clone()
	}
	for k, list := range l.walletEvents {
		s.WalletEvents[k] = append([]events.OnChainEvent{}, list...)
	}
	for k, list := range l.votingEvents {
		s.VotingEvents[k] = append([]events.OnChainEvent{}, list...)
	}
	for k, t := range l.treasuries {
		s.Treasuries[k] = t.Clone()
	}
	for k, ts := range l.grants {
		s.Grants[k] = ts
	}
	if l.daoApps != nil {
		apps := *l.daoApps
		s.DaoApps = &apps
	}
	if l.poolInfo != nil {
		info := *l.poolInfo
		s.PoolInfo = &info
	}
	if l.circulation != nil {
		c := *l.circulation
		s.Circulation = &c
	}
	return s
}

// FromSnapshot rebuilds a ledger that continues where the snapshot left off.
func FromSnapshot(s *Snapshot, scripts action.ScriptDecoder, logger *zap.Logger) *Ledger {
	l := New(s.ChainID, scripts, logger)
	l.lastBlock = s.LastBlock
	l.epochIndex = s.EpochIndex
	l.apr = s.APR
	l.stakeTarget = s.StakeTarget
	l.erc20Addresses = append([]common.Address{}, s.Erc20Addresses...)
	l.vestingAddresses = append([]common.Address{}, s.VestingAddresses...)
	for k, w := range s.Wallets {
		c := w.Clone()
		l.wallets[k] = &c
	}
	for k, v := range s.Votings {
		c := v.Clone()
		l.votings[k] = &c
	}
	for k, e := range s.Epochs {
		c := e.Clone()
		l.epochs[k] = &c
	}
	for k, list := range s.WalletEvents {
		l.walletEvents[k] = append([]events.OnChainEvent{}, list...)
	}
	for k, list := range s.VotingEvents {
		l.votingEvents[k] = append([]events.OnChainEvent{}, list...)
	}
	for k, t := range s.Treasuries {
		l.treasuries[k] = t.Clone()
	}
	for k, ts := range s.Grants {
		l.grants[k] = ts
	}
	if s.DaoApps != nil {
		apps := *s.DaoApps
		l.daoApps = &apps
	}
	if s.PoolInfo != nil {
		info := *s.PoolInfo
		l.poolInfo = &info
	}
	if s.Circulation != nil {
		c := *s.Circulation
		l.circulation = &c
	}
	return l
}

// Member reports whether addr has a wallet in the snapshot.
func (s *Snapshot) Member(addr common.Address) (model.Wallet, bool) {
	w, ok := s.Wallets[addr]
	return w, ok
}

// RewardHistory mirrors Ledger.RewardHistory over the copied epochs.
func (s *Snapshot) RewardHistory(addr common.Address) []EpochReward {
	l := &Ledger{epochs: make(map[uint64]*model.Epoch, len(s.Epochs))}
	for k, e := range s.Epochs {
		e := e
		l.epochs[k] = &e
	}
	return l.RewardHistory(addr)
}

// WalletList returns the wallets ordered by voting power, largest first.
func (s *Snapshot) WalletList() []model.Wallet {
	out := make([]model.Wallet, 0, len(s.Wallets))
	for _, w := range s.Wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].VotingPower.Cmp(out[j].VotingPower); c != 0 {
			return c > 0
		}
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// VotingList returns the votings, most recent first.
func (s *Snapshot) VotingList() []model.Voting {
	out := make([]model.Voting, 0, len(s.Votings))
	for _, v := range s.Votings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber > out[j].BlockNumber
		}
		return out[i].Key > out[j].Key
	})
	return out
}

// EpochList returns the epochs in index order.
func (s *Snapshot) EpochList() []model.Epoch {
	out := make([]model.Epoch, 0, len(s.Epochs))
	for _, e := range s.Epochs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
