package events

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/model"
)

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

var decoders = map[Kind]func(json.RawMessage) (Event, error){}

func register[T Event](kind Kind) {
	decoders[kind] = func(raw json.RawMessage) (Event, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func init() {
	register[SetDaoApps](KindSetDaoApps)
	register[Delegated](KindDelegated)
	register[DelegatedV0](KindDelegatedV0)
	register[Undelegated](KindUndelegated)
	register[UndelegatedV0](KindUndelegatedV0)
	register[UpdatedDelegation](KindUpdatedDelegation)
	register[Staked](KindStaked)
	register[StakedV0](KindStakedV0)
	register[Unstaked](KindUnstaked)
	register[UnstakedV0](KindUnstakedV0)
	register[ScheduledUnstake](KindScheduledUnstake)
	register[ScheduledUnstakeV0](KindScheduledUnstakeV0)
	register[Deposited](KindDeposited)
	register[DepositedV0](KindDepositedV0)
	register[DepositedVesting](KindDepositedVesting)
	register[DepositedByTimelockManager](KindDepositedByTimelockManager)
	register[VestedTimelock](KindVestedTimelock)
	register[Withdrawn](KindWithdrawn)
	register[WithdrawnV0](KindWithdrawnV0)
	register[WithdrawnToPool](KindWithdrawnToPool)
	register[UpdatedLastProposalTimestamp](KindUpdatedLastProposalTimestamp)
	register[SetStakeTarget](KindSetStakeTarget)
	register[MintedReward](KindMintedReward)
	register[MintedRewardV0](KindMintedRewardV0)
	register[StartVote](KindStartVote)
	register[CastVote](KindCastVote)
	register[ExecuteVote](KindExecuteVote)
	register[SetErc20Addresses](KindSetErc20Addresses)
	register[SetVestingAddresses](KindSetVestingAddresses)
	register[OwnershipTransferred](KindOwnershipTransferred)
	register[Transfer](KindTransfer)
	register[Ignored](KindIgnored)
	register[Unknown](KindUnknown)
}

// MarshalEvent encodes an event as {"type": kind, "data": fields}.
func MarshalEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("marshal event: nil")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Kind(), err)
	}
	return json.Marshal(envelope{Type: e.Kind(), Data: data})
}

// UnmarshalEvent reverses MarshalEvent.
func UnmarshalEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unmarshal event: unknown type %q", env.Type)
	}
	event, err := decode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return event, nil
}

// OnChainEvent is a decoded event with its position on chain. Ledger replay
// order is (BlockNumber, LogIndex).
type OnChainEvent struct {
	Entry       Event          `json:"-"`
	Timestamp   uint64         `json:"ts"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"tx"`
	LogIndex    uint64         `json:"log_index"`
	Fee         *model.TxFee   `json:"fee,omitempty"`
	Address     common.Address `json:"address"`
}

// Before orders events by block, then by position in the block.
func (e OnChainEvent) Before(other OnChainEvent) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

func (e OnChainEvent) MarshalJSON() ([]byte, error) {
	type Alias OnChainEvent
	entry, err := MarshalEvent(e.Entry)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Entry json.RawMessage `json:"entry"`
		Alias
	}{Entry: entry, Alias: Alias(e)})
}

func (e *OnChainEvent) UnmarshalJSON(data []byte) error {
	type Alias OnChainEvent
	var a struct {
		Entry json.RawMessage `json:"entry"`
		Alias
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	entry, err := UnmarshalEvent(a.Entry)
	if err != nil {
		return err
	}
	*e = OnChainEvent(a.Alias)
	e.Entry = entry
	return nil
}
