// Package events defines the closed set of DAO contract events and decodes
// raw logs into them.
package events

import (
	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/model"
)

// Kind names an event variant. It is also the "type" tag in JSON.
type Kind string

const (
	KindSetDaoApps                   Kind = "SetDaoApps"
	KindDelegated                    Kind = "Delegated"
	KindDelegatedV0                  Kind = "DelegatedV0"
	KindUndelegated                  Kind = "Undelegated"
	KindUndelegatedV0                Kind = "UndelegatedV0"
	KindUpdatedDelegation            Kind = "UpdatedDelegation"
	KindStaked                       Kind = "Staked"
	KindStakedV0                     Kind = "StakedV0"
	KindUnstaked                     Kind = "Unstaked"
	KindUnstakedV0                   Kind = "UnstakedV0"
	KindScheduledUnstake             Kind = "ScheduledUnstake"
	KindScheduledUnstakeV0           Kind = "ScheduledUnstakeV0"
	KindDeposited                    Kind = "Deposited"
	KindDepositedV0                  Kind = "DepositedV0"
	KindDepositedVesting             Kind = "DepositedVesting"
	KindDepositedByTimelockManager   Kind = "DepositedByTimelockManager"
	KindVestedTimelock               Kind = "VestedTimelock"
	KindWithdrawn                    Kind = "Withdrawn"
	KindWithdrawnV0                  Kind = "WithdrawnV0"
	KindWithdrawnToPool              Kind = "WithdrawnToPool"
	KindUpdatedLastProposalTimestamp Kind = "UpdatedLastProposalTimestamp"
	KindSetStakeTarget               Kind = "SetStakeTarget"
	KindMintedReward                 Kind = "MintedReward"
	KindMintedRewardV0               Kind = "MintedRewardV0"
	KindStartVote                    Kind = "StartVote"
	KindCastVote                     Kind = "CastVote"
	KindExecuteVote                  Kind = "ExecuteVote"
	KindSetErc20Addresses            Kind = "SetErc20Addresses"
	KindSetVestingAddresses          Kind = "SetVestingAddresses"
	KindOwnershipTransferred         Kind = "OwnershipTransferred"
	KindTransfer                     Kind = "Transfer"
	KindIgnored                      Kind = "Ignored"
	KindUnknown                      Kind = "Unknown"
)

// Event is one decoded log. The set of implementations is closed to this package.
type Event interface {
	Kind() Kind
	event()
}

type SetDaoApps struct {
	AgentAppPrimary    common.Address `json:"agent_app_primary"`
	AgentAppSecondary  common.Address `json:"agent_app_secondary"`
	VotingAppPrimary   common.Address `json:"voting_app_primary"`
	VotingAppSecondary common.Address `json:"voting_app_secondary"`
}

type Delegated struct {
	From             common.Address `json:"from"`
	To               common.Address `json:"to"`
	Shares           model.Amount   `json:"shares"`
	TotalDelegatedTo model.Amount   `json:"total_delegated_to"`
}

type DelegatedV0 struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Shares model.Amount   `json:"shares"`
}

type Undelegated struct {
	From             common.Address `json:"from"`
	To               common.Address `json:"to"`
	Shares           model.Amount   `json:"shares"`
	TotalDelegatedTo model.Amount   `json:"total_delegated_to"`
}

type UndelegatedV0 struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Shares model.Amount   `json:"shares"`
}

type UpdatedDelegation struct {
	User             common.Address `json:"user"`
	Delegate         common.Address `json:"delegate"`
	Delta            bool           `json:"delta"`
	Shares           model.Amount   `json:"shares"`
	TotalDelegatedTo model.Amount   `json:"total_delegated_to"`
}

type Staked struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	MintedShares model.Amount   `json:"minted_shares"`
	UserUnstaked model.Amount   `json:"user_unstaked"`
	UserShares   model.Amount   `json:"user_shares"`
	TotalShares  model.Amount   `json:"total_shares"`
	TotalStake   model.Amount   `json:"total_stake"`
}

type StakedV0 struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	MintedShares model.Amount   `json:"minted_shares"`
}

type Unstaked struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	UserUnstaked model.Amount   `json:"user_unstaked"`
	TotalShares  model.Amount   `json:"total_shares"`
	TotalStake   model.Amount   `json:"total_stake"`
}

type UnstakedV0 struct {
	User   common.Address `json:"user"`
	Amount model.Amount   `json:"amount"`
}

type ScheduledUnstake struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	Shares       model.Amount   `json:"shares"`
	ScheduledFor model.Amount   `json:"scheduled_for"`
	UserShares   model.Amount   `json:"user_shares"`
}

type ScheduledUnstakeV0 struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	Shares       model.Amount   `json:"shares"`
	ScheduledFor model.Amount   `json:"scheduled_for"`
}

type Deposited struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	UserUnstaked model.Amount   `json:"user_unstaked"`
}

type DepositedV0 struct {
	User   common.Address `json:"user"`
	Amount model.Amount   `json:"amount"`
}

type DepositedVesting struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	Start        model.Amount   `json:"start"`
	End          model.Amount   `json:"end"`
	UserUnstaked model.Amount   `json:"user_unstaked"`
	UserVesting  model.Amount   `json:"user_vesting"`
}

type DepositedByTimelockManager struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	UserUnstaked model.Amount   `json:"user_unstaked"`
}

type VestedTimelock struct {
	User        common.Address `json:"user"`
	Amount      model.Amount   `json:"amount"`
	UserVesting model.Amount   `json:"user_vesting"`
}

type Withdrawn struct {
	User         common.Address `json:"user"`
	Amount       model.Amount   `json:"amount"`
	UserUnstaked model.Amount   `json:"user_unstaked"`
}

type WithdrawnV0 struct {
	User   common.Address `json:"user"`
	Amount model.Amount   `json:"amount"`
}

type WithdrawnToPool struct {
	Recipient   common.Address `json:"recipient"`
	PoolAddress common.Address `json:"pool_address"`
	Beneficiary common.Address `json:"beneficiary"`
}

type UpdatedLastProposalTimestamp struct {
	User                  common.Address `json:"user"`
	LastProposalTimestamp model.Amount   `json:"last_proposal_timestamp"`
	VotingApp             common.Address `json:"voting_app"`
}

type SetStakeTarget struct {
	StakeTarget model.Amount `json:"stake_target"`
}

type MintedReward struct {
	EpochIndex uint64       `json:"epoch_index"`
	Amount     model.Amount `json:"amount"`
	NewAPR     model.Amount `json:"new_apr"`
	TotalStake model.Amount `json:"total_stake"`
}

type MintedRewardV0 struct {
	EpochIndex uint64       `json:"epoch_index"`
	Amount     model.Amount `json:"amount"`
	NewAPR     model.Amount `json:"new_apr"`
}

type StartVote struct {
	Agent    model.VotingAgent `json:"agent"`
	VoteID   uint64            `json:"vote_id"`
	Creator  common.Address    `json:"creator"`
	Metadata string            `json:"metadata"`
}

type CastVote struct {
	Agent    model.VotingAgent `json:"agent"`
	VoteID   uint64            `json:"vote_id"`
	Voter    common.Address    `json:"voter"`
	Supports bool              `json:"supports"`
	Stake    model.Amount      `json:"stake"`
}

type ExecuteVote struct {
	Agent  model.VotingAgent `json:"agent"`
	VoteID uint64            `json:"vote_id"`
}

type SetErc20Addresses struct {
	Addresses []common.Address `json:"addresses"`
}

type SetVestingAddresses struct {
	Addresses []common.Address `json:"addresses"`
}

type OwnershipTransferred struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
}

type Transfer struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount model.Amount   `json:"amount"`
}

// Ignored is a known infrastructure signature that carries no DAO state.
type Ignored struct {
	Topic0 common.Hash `json:"topic0"`
}

// Unknown is an unrecognized signature or a recognized one with a malformed payload.
type Unknown struct {
	Topic0 common.Hash `json:"topic0"`
}

func (SetDaoApps) Kind() Kind                   { return KindSetDaoApps }
func (Delegated) Kind() Kind                    { return KindDelegated }
func (DelegatedV0) Kind() Kind                  { return KindDelegatedV0 }
func (Undelegated) Kind() Kind                  { return KindUndelegated }
func (UndelegatedV0) Kind() Kind                { return KindUndelegatedV0 }
func (UpdatedDelegation) Kind() Kind            { return KindUpdatedDelegation }
func (Staked) Kind() Kind                       { return KindStaked }
func (StakedV0) Kind() Kind                     { return KindStakedV0 }
func (Unstaked) Kind() Kind                     { return KindUnstaked }
func (UnstakedV0) Kind() Kind                   { return KindUnstakedV0 }
func (ScheduledUnstake) Kind() Kind             { return KindScheduledUnstake }
func (ScheduledUnstakeV0) Kind() Kind           { return KindScheduledUnstakeV0 }
func (Deposited) Kind() Kind                    { return KindDeposited }
func (DepositedV0) Kind() Kind                  { return KindDepositedV0 }
func (DepositedVesting) Kind() Kind             { return KindDepositedVesting }
func (DepositedByTimelockManager) Kind() Kind   { return KindDepositedByTimelockManager }
func (VestedTimelock) Kind() Kind               { return KindVestedTimelock }
func (Withdrawn) Kind() Kind                    { return KindWithdrawn }
func (WithdrawnV0) Kind() Kind                  { return KindWithdrawnV0 }
func (WithdrawnToPool) Kind() Kind              { return KindWithdrawnToPool }
func (UpdatedLastProposalTimestamp) Kind() Kind { return KindUpdatedLastProposalTimestamp }
func (SetStakeTarget) Kind() Kind               { return KindSetStakeTarget }
func (MintedReward) Kind() Kind                 { return KindMintedReward }
func (MintedRewardV0) Kind() Kind               { return KindMintedRewardV0 }
func (StartVote) Kind() Kind                    { return KindStartVote }
func (CastVote) Kind() Kind                     { return KindCastVote }
func (ExecuteVote) Kind() Kind                  { return KindExecuteVote }
func (SetErc20Addresses) Kind() Kind            { return KindSetErc20Addresses }
func (SetVestingAddresses) Kind() Kind          { return KindSetVestingAddresses }
func (OwnershipTransferred) Kind() Kind         { return KindOwnershipTransferred }
func (Transfer) Kind() Kind                     { return KindTransfer }
func (Ignored) Kind() Kind                      { return KindIgnored }
func (Unknown) Kind() Kind                      { return KindUnknown }

func (SetDaoApps) event()                   {}
func (Delegated) event()                    {}
func (DelegatedV0) event()                  {}
func (Undelegated) event()                  {}
func (UndelegatedV0) event()                {}
func (UpdatedDelegation) event()            {}
func (Staked) event()                       {}
func (StakedV0) event()                     {}
func (Unstaked) event()                     {}
func (UnstakedV0) event()                   {}
func (ScheduledUnstake) event()             {}
func (ScheduledUnstakeV0) event()           {}
func (Deposited) event()                    {}
func (DepositedV0) event()                  {}
func (DepositedVesting) event()             {}
func (DepositedByTimelockManager) event()   {}
func (VestedTimelock) event()               {}
func (Withdrawn) event()                    {}
func (WithdrawnV0) event()                  {}
func (WithdrawnToPool) event()              {}
func (UpdatedLastProposalTimestamp) event() {}
func (SetStakeTarget) event()               {}
func (MintedReward) event()                 {}
func (MintedRewardV0) event()               {}
func (StartVote) event()                    {}
func (CastVote) event()                     {}
func (ExecuteVote) event()                  {}
func (SetErc20Addresses) event()            {}
func (SetVestingAddresses) event()          {}
func (OwnershipTransferred) event()         {}
func (Transfer) event()                     {}
func (Ignored) event()                      {}
func (Unknown) event()                      {}
