package events

import (
	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/model"
)

// WalletsTouched lists the member addresses an event refers to, in field order.
// Transfers and ownership changes are token or contract bookkeeping and touch no member.
func WalletsTouched(e Event) []common.Address {
	switch ev := e.(type) {
	case Delegated:
		return []common.Address{ev.From, ev.To}
	case DelegatedV0:
		return []common.Address{ev.From, ev.To}
	case Undelegated:
		return []common.Address{ev.From, ev.To}
	case UndelegatedV0:
		return []common.Address{ev.From, ev.To}
	case UpdatedDelegation:
		return []common.Address{ev.User, ev.Delegate}
	case Staked:
		return []common.Address{ev.User}
	case StakedV0:
		return []common.Address{ev.User}
	case Unstaked:
		return []common.Address{ev.User}
	case UnstakedV0:
		return []common.Address{ev.User}
	case ScheduledUnstake:
		return []common.Address{ev.User}
	case ScheduledUnstakeV0:
		return []common.Address{ev.User}
	case Deposited:
		return []common.Address{ev.User}
	case DepositedV0:
		return []common.Address{ev.User}
	case DepositedVesting:
		return []common.Address{ev.User}
	case DepositedByTimelockManager:
		return []common.Address{ev.User}
	case VestedTimelock:
		return []common.Address{ev.User}
	case Withdrawn:
		return []common.Address{ev.User}
	case WithdrawnV0:
		return []common.Address{ev.User}
	case WithdrawnToPool:
		return []common.Address{ev.Recipient, ev.Beneficiary}
	case UpdatedLastProposalTimestamp:
		return []common.Address{ev.User}
	case StartVote:
		return []common.Address{ev.Creator}
	case CastVote:
		return []common.Address{ev.Voter}
	case SetVestingAddresses:
		return append([]common.Address{}, ev.Addresses...)
	default:
		return nil
	}
}

// VotingKey returns the voting the event belongs to, if any.
func VotingKey(e Event) (uint64, bool) {
	switch ev := e.(type) {
	case StartVote:
		return model.VotingKey(ev.Agent, ev.VoteID), true
	case CastVote:
		return model.VotingKey(ev.Agent, ev.VoteID), true
	case ExecuteVote:
		return model.VotingKey(ev.Agent, ev.VoteID), true
	default:
		return 0, false
	}
}

// IsBroadcast reports events that affect every wallet rather than the ones they name.
func IsBroadcast(e Event) bool {
	switch e.(type) {
	case MintedReward, MintedRewardV0:
		return true
	default:
		return false
	}
}

// IsNoise reports events the ledger does not fold.
func IsNoise(e Event) bool {
	switch e.(type) {
	case Ignored, Unknown:
		return true
	default:
		return false
	}
}
