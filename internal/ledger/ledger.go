// Package ledger folds ordered DAO events into wallets, delegations, votings
// and reward epochs.
//
// A Ledger is not safe for concurrent use. The Replayer owns one and is the
// only writer; readers get deep copies through Snapshot.
package ledger

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"daoTracker/internal/action"
	"daoTracker/internal/events"
	"daoTracker/internal/model"
)

var (
	// epochs are one week; rewards are quoted per 52-week year
	aprCorrection = decimal.NewFromInt(52 * 7).Div(decimal.NewFromInt(365))
	aprScale      = decimal.New(1, -4)
)

// ScaleAPR converts the raw on-chain APR of a mint into a fraction.
func ScaleAPR(raw model.Amount) decimal.Decimal {
	return raw.Decimal(14).Mul(aprCorrection).Mul(aprScale)
}

type Ledger struct {
	logger  *zap.Logger
	scripts action.ScriptDecoder

	chainID   uint64
	lastBlock uint64

	wallets map[common.Address]*model.Wallet
	votings map[uint64]*model.Voting
	epochs  map[uint64]*model.Epoch

	walletEvents map[common.Address][]events.OnChainEvent
	votingEvents map[uint64][]events.OnChainEvent

	epochIndex       uint64
	apr              decimal.Decimal
	stakeTarget      model.Amount
	daoApps          *events.SetDaoApps
	erc20Addresses   []common.Address
	vestingAddresses []common.Address
	treasuries       map[string]model.Treasury
	poolInfo         *model.PoolInfo
	circulation      *model.Circulation
	grants           map[common.Address]uint64
}

// New returns an empty ledger. scripts may be nil, in which case vote
// scripts are stored but never classified.
func New(chainID uint64, scripts action.ScriptDecoder, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger:       logger,
		scripts:      scripts,
		chainID:      chainID,
		wallets:      make(map[common.Address]*model.Wallet),
		votings:      make(map[uint64]*model.Voting),
		epochs:       make(map[uint64]*model.Epoch),
		walletEvents: make(map[common.Address][]events.OnChainEvent),
		votingEvents: make(map[uint64][]events.OnChainEvent),
		treasuries:   make(map[string]model.Treasury),
		grants:       make(map[common.Address]uint64),
	}
}

func (l *Ledger) ChainID() uint64   { return l.chainID }
func (l *Ledger) LastBlock() uint64 { return l.lastBlock }

// AdvanceTo records that every block up to n has been folded.
func (l *Ledger) AdvanceTo(n uint64) {
	if n > l.lastBlock {
		l.lastBlock = n
	}
}

// Fold applies one event. Events must arrive in (block, log index) order.
// Ignored and Unknown events are no-ops. A *ViolationError means the event was
// skipped and the ledger is exactly as it was before the call.
func (l *Ledger) Fold(e events.OnChainEvent) error {
	if e.Entry == nil || events.IsNoise(e.Entry) {
		return nil
	}
	if err := l.check(e.Entry); err != nil {
		return violation(e, err)
	}
	l.record(e)
	l.apply(e)
	l.AdvanceTo(e.BlockNumber)
	return nil
}

// check rejects events that would break an invariant. It must not mutate.
func (l *Ledger) check(entry events.Event) error {
	switch ev := entry.(type) {
	case events.Delegated:
		return l.checkKnown(ev.From)
	case events.DelegatedV0:
		return l.checkKnown(ev.From)
	case events.Undelegated:
		return l.checkUndelegate(ev.From, ev.To, ev.Shares)
	case events.UndelegatedV0:
		return l.checkUndelegate(ev.From, ev.To, ev.Shares)
	case events.ScheduledUnstake:
		return l.checkShares(ev.User, ev.Shares)
	case events.ScheduledUnstakeV0:
		return l.checkShares(ev.User, ev.Shares)
	case events.MintedReward:
		return l.checkEpoch(ev.EpochIndex)
	case events.MintedRewardV0:
		return l.checkEpoch(ev.EpochIndex)
	case events.StartVote:
		if _, ok := l.votings[model.VotingKey(ev.Agent, ev.VoteID)]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateVoting, model.FormatVotingKey(model.VotingKey(ev.Agent, ev.VoteID)))
		}
	case events.CastVote:
		return l.checkVoting(model.VotingKey(ev.Agent, ev.VoteID))
	case events.ExecuteVote:
		return l.checkVoting(model.VotingKey(ev.Agent, ev.VoteID))
	}
	return nil
}

func (l *Ledger) checkKnown(addr common.Address) error {
	if _, ok := l.wallets[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWallet, addr.Hex())
	}
	return nil
}

func (l *Ledger) checkUndelegate(from, to common.Address, shares model.Amount) error {
	w, ok := l.wallets[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWallet, from.Hex())
	}
	if w.Delegates == nil || w.Delegates.To != to {
		return fmt.Errorf("%w: %s does not delegate to %s", ErrDelegationMismatch, from.Hex(), to.Hex())
	}
	if w.Shares.Lt(shares) {
		return fmt.Errorf("%w: %s has %s, undelegates %s", ErrInsufficientShares, from.Hex(), w.Shares, shares)
	}
	return nil
}

func (l *Ledger) checkShares(addr common.Address, shares model.Amount) error {
	var have model.Amount
	if w, ok := l.wallets[addr]; ok {
		have = w.Shares
	}
	if have.Lt(shares) {
		return fmt.Errorf("%w: %s has %s, unstakes %s", ErrInsufficientShares, addr.Hex(), have, shares)
	}
	return nil
}

func (l *Ledger) checkEpoch(index uint64) error {
	if _, ok := l.epochs[index]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEpoch, index)
	}
	return nil
}

func (l *Ledger) checkVoting(key uint64) error {
	if _, ok := l.votings[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVoting, model.FormatVotingKey(key))
	}
	return nil
}

// record creates referenced wallets and appends the event to entity histories.
func (l *Ledger) record(e events.OnChainEvent) {
	seen := make(map[common.Address]struct{}, 2)
	for _, addr := range events.WalletsTouched(e.Entry) {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		w := l.wallet(addr, e.Timestamp)
		w.UpdatedAt = e.Timestamp
		l.walletEvents[addr] = append(l.walletEvents[addr], e)
	}
	if key, ok := events.VotingKey(e.Entry); ok {
		l.votingEvents[key] = append(l.votingEvents[key], e)
	}
}

// wallet returns the record for addr, creating it at ts when missing.
func (l *Ledger) wallet(addr common.Address, ts uint64) *model.Wallet {
	w, ok := l.wallets[addr]
	if !ok {
		w = model.NewWallet(addr, ts)
		l.wallets[addr] = w
	}
	return w
}

func (l *Ledger) apply(e events.OnChainEvent) {
	switch ev := e.Entry.(type) {
	case events.Deposited:
		l.deposit(ev.User, ev.Amount)
	case events.DepositedV0:
		l.deposit(ev.User, ev.Amount)
	case events.DepositedVesting:
		l.deposit(ev.User, ev.Amount)
	case events.DepositedByTimelockManager:
		l.deposit(ev.User, ev.Amount)
	case events.Withdrawn:
		l.withdraw(ev.User, ev.Amount)
	case events.WithdrawnV0:
		l.withdraw(ev.User, ev.Amount)
	case events.Staked:
		l.stake(ev.User, ev.Amount, ev.MintedShares)
	case events.StakedV0:
		l.stake(ev.User, ev.Amount, ev.MintedShares)
	case events.ScheduledUnstake:
		l.scheduleUnstake(ev.User, ev.Amount, ev.Shares, ev.ScheduledFor)
	case events.ScheduledUnstakeV0:
		l.scheduleUnstake(ev.User, ev.Amount, ev.Shares, ev.ScheduledFor)
	case events.Unstaked:
		l.unstake(ev.User, ev.Amount)
	case events.UnstakedV0:
		l.unstake(ev.User, ev.Amount)
	case events.Delegated:
		l.delegate(ev.From, ev.To)
	case events.DelegatedV0:
		l.delegate(ev.From, ev.To)
	case events.Undelegated:
		l.undelegate(ev.From, ev.To)
	case events.UndelegatedV0:
		l.undelegate(ev.From, ev.To)
	case events.UpdatedDelegation:
		if w := l.wallets[ev.User]; w.Delegates != nil && w.Delegates.To == ev.Delegate {
			l.syncDelegation(w)
		}
	case events.MintedReward:
		l.mint(e, ev.EpochIndex, ev.Amount, ev.NewAPR, ev.TotalStake)
	case events.MintedRewardV0:
		l.mint(e, ev.EpochIndex, ev.Amount, ev.NewAPR, model.Amount{})
	case events.StartVote:
		l.startVote(e, ev)
	case events.CastVote:
		l.castVote(ev)
	case events.ExecuteVote:
		l.votings[model.VotingKey(ev.Agent, ev.VoteID)].Executed = true
	case events.SetVestingAddresses:
		l.setVesting(ev.Addresses)
	case events.SetStakeTarget:
		l.stakeTarget = ev.StakeTarget
	case events.SetDaoApps:
		apps := ev
		l.daoApps = &apps
	case events.SetErc20Addresses:
		l.erc20Addresses = append([]common.Address{}, ev.Addresses...)
	}
}

func (l *Ledger) deposit(user common.Address, amount model.Amount) {
	w := l.wallets[user]
	w.Deposited = w.Deposited.Add(amount)
}

func (l *Ledger) withdraw(user common.Address, amount model.Amount) {
	w := l.wallets[user]
	w.Withdrawn = w.Withdrawn.Add(amount)
	w.Supporter = false
}

func (l *Ledger) stake(user common.Address, amount, minted model.Amount) {
	w := l.wallets[user]
	w.Staked = w.Staked.Add(amount)
	w.Shares = w.Shares.Add(minted)
	w.Supporter = true
	l.syncDelegation(w)
}

func (l *Ledger) scheduleUnstake(user common.Address, amount, shares, scheduledFor model.Amount) {
	w := l.wallets[user]
	w.Shares = w.Shares.Sub(shares)
	w.Staked = w.Staked.Sub(amount.Min(w.Staked))
	at, ok := scheduledFor.Uint64()
	if !ok {
		l.logger.Warn("scheduled unstake time out of range, clamped",
			zap.String("wallet", user.Hex()),
			zap.String("scheduled_for", scheduledFor.String()),
		)
		at = math.MaxUint64
	}
	w.ScheduledUnstake = &model.ScheduledUnstake{Amount: amount, Shares: shares, Time: at}
	w.Supporter = false
	l.syncDelegation(w)
}

func (l *Ledger) unstake(user common.Address, amount model.Amount) {
	w := l.wallets[user]
	if w.ScheduledUnstake == nil {
		l.logger.Warn("unstake without a scheduled unstake",
			zap.String("wallet", user.Hex()),
			zap.String("amount", amount.String()),
		)
		return
	}
	if w.ScheduledUnstake.Amount.Cmp(amount) != 0 {
		l.logger.Warn("unstake amount differs from schedule",
			zap.String("wallet", user.Hex()),
			zap.String("scheduled", w.ScheduledUnstake.Amount.String()),
			zap.String("amount", amount.String()),
		)
	}
	w.ScheduledUnstake = nil
}

func (l *Ledger) delegate(from, to common.Address) {
	w := l.wallets[from]
	if w.Delegates != nil {
		if prev, ok := l.wallets[w.Delegates.To]; ok {
			delete(prev.Delegated, from)
			l.recompute(prev)
		}
	}
	w.Delegates = &model.Delegation{To: to, Shares: w.Shares}
	target := l.wallets[to]
	target.Delegated[from] = w.Shares
	l.recompute(target)
	l.recompute(w)
}

func (l *Ledger) undelegate(from, to common.Address) {
	w := l.wallets[from]
	w.Delegates = nil
	if target, ok := l.wallets[to]; ok {
		delete(target.Delegated, from)
		l.recompute(target)
	}
	l.recompute(w)
}

// syncDelegation keeps the delegated snapshot equal to the delegator's shares.
func (l *Ledger) syncDelegation(w *model.Wallet) {
	if w.Delegates != nil {
		w.Delegates.Shares = w.Shares
		if target, ok := l.wallets[w.Delegates.To]; ok {
			target.Delegated[w.Address] = w.Shares
			l.recompute(target)
		}
	}
	l.recompute(w)
}

func (l *Ledger) recompute(w *model.Wallet) {
	w.VotingPower = w.ComputeVotingPower()
}

// mint snapshots every stake, then distributes amount pro rata with
// truncating division. A non-zero totalStake from the event replaces the
// summed snapshot as the divisor.
func (l *Ledger) mint(e events.OnChainEvent, index uint64, amount, rawAPR, totalStake model.Amount) {
	epoch := &model.Epoch{
		Index:       index,
		Minted:      amount,
		Stakes:      make(map[common.Address]model.Amount),
		Timestamp:   e.Timestamp,
		BlockNumber: e.BlockNumber,
	}
	for addr, w := range l.wallets {
		stake := w.Staked.Add(w.Rewards)
		if stake.IsZero() {
			continue
		}
		epoch.Stakes[addr] = stake
		epoch.Total = epoch.Total.Add(stake)
	}
	if !totalStake.IsZero() {
		epoch.Total = totalStake
	}
	for addr, stake := range epoch.Stakes {
		w := l.wallets[addr]
		w.Rewards = w.Rewards.Add(amount.MulDiv(stake, epoch.Total))
	}

	l.apr = ScaleAPR(rawAPR)
	epoch.APR = l.apr
	l.epochs[index] = epoch
	l.epochIndex = index + 1
}

func (l *Ledger) startVote(e events.OnChainEvent, ev events.StartVote) {
	key := model.VotingKey(ev.Agent, ev.VoteID)
	creator := l.wallets[ev.Creator]
	power := creator.VotingPower
	l.votings[key] = &model.Voting{
		Key:         key,
		Agent:       ev.Agent,
		VoteID:      ev.VoteID,
		Creator:     ev.Creator,
		Metadata:    ev.Metadata,
		VotedYes:    power,
		Supporters:  []common.Address{ev.Creator},
		Opponents:   []common.Address{},
		VotesTotal:  l.TotalVotingPower(),
		CreatedAt:   e.Timestamp,
		BlockNumber: e.BlockNumber,
	}
	creator.Votes++
}

// castVote adds the stake to one side. Every ballot counts, including a
// second one from the same voter or the creator's own after StartVote.
func (l *Ledger) castVote(ev events.CastVote) {
	v := l.votings[model.VotingKey(ev.Agent, ev.VoteID)]
	if ev.Supports {
		v.VotedYes = v.VotedYes.Add(ev.Stake)
		v.Supporters = append(v.Supporters, ev.Voter)
	} else {
		v.VotedNo = v.VotedNo.Add(ev.Stake)
		v.Opponents = append(v.Opponents, ev.Voter)
	}
	l.wallets[ev.Voter].Votes++
}

func (l *Ledger) setVesting(addresses []common.Address) {
	vesting := make(map[common.Address]struct{}, len(addresses))
	for _, addr := range addresses {
		vesting[addr] = struct{}{}
	}
	for addr, w := range l.wallets {
		_, w.Vested = vesting[addr]
	}
	l.vestingAddresses = append([]common.Address{}, addresses...)
}

// SetVotingDetails attaches static vote data read from the chain. A non-zero
// voting power replaces the total estimated at StartVote, and a script the
// decoder recognises becomes the voting action; its recipient is tracked as
// a grant and gets a wallet.
func (l *Ledger) SetVotingDetails(key uint64, details model.VotingDetails) error {
	v, ok := l.votings[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVoting, model.FormatVotingKey(key))
	}
	v.Details = &details
	if !details.VotingPower.IsZero() {
		v.VotesTotal = details.VotingPower
	}
	if l.scripts == nil {
		return nil
	}
	act, ok := l.scripts.DecodeAction(details.Script)
	if !ok {
		return nil
	}
	v.Action = &act
	if act.Wallet != nil {
		l.grants[*act.Wallet] = v.CreatedAt
		if _, ok := l.wallets[*act.Wallet]; !ok {
			l.wallets[*act.Wallet] = model.NewWallet(*act.Wallet, v.CreatedAt)
		}
	}
	return nil
}

// SetTreasuries replaces the balances of the named treasuries.
func (l *Ledger) SetTreasuries(treasuries []model.Treasury) {
	for _, t := range treasuries {
		l.treasuries[t.Name] = t.Clone()
	}
}

func (l *Ledger) SetPoolInfo(info model.PoolInfo) {
	l.poolInfo = &info
}

func (l *Ledger) SetCirculation(c model.Circulation) {
	l.circulation = &c
}
