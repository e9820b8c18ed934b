package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"daoTracker/internal/model"
)

var pctScale = decimal.New(1, -4)

// StaticVoteData reads the parts of a vote that its events do not carry.
// user only affects the userVotingPowerAt output, which is discarded.
func StaticVoteData(ctx context.Context, caller Caller, convenience common.Address, agent model.VotingAgent, voteID uint64, user common.Address) (model.VotingDetails, error) {
	parsed, err := ConvenienceABI()
	if err != nil {
		return model.VotingDetails{}, fmt.Errorf("parse convenience abi: %w", err)
	}
	ids := []*big.Int{new(big.Int).SetUint64(voteID)}
	values, err := call(ctx, caller, convenience, parsed, "getStaticVoteData", nil, uint8(agent), user, ids)
	if err != nil {
		return model.VotingDetails{}, err
	}
	return votingDetails(values)
}

// votingDetails takes element 0 of each output array. Support and quorum are
// 18-decimal fractions.
func votingDetails(values []interface{}) (model.VotingDetails, error) {
	if len(values) < 7 {
		return model.VotingDetails{}, fmt.Errorf("getStaticVoteData: %d outputs", len(values))
	}
	first := make([]interface{}, 7)
	for i := range first {
		v, err := firstOf(values[i])
		if err != nil {
			return model.VotingDetails{}, fmt.Errorf("getStaticVoteData output %d: %w", i, err)
		}
		first[i] = v
	}

	startDate, err := asUint64(first[0])
	if err != nil {
		return model.VotingDetails{}, fmt.Errorf("startDate: %w", err)
	}
	support, err := asAmount(first[1])
	if err != nil {
		return model.VotingDetails{}, fmt.Errorf("supportRequired: %w", err)
	}
	quorum, err := asAmount(first[2])
	if err != nil {
		return model.VotingDetails{}, fmt.Errorf("minAcceptQuorum: %w", err)
	}
	power, err := asAmount(first[3])
	if err != nil {
		return model.VotingDetails{}, fmt.Errorf("votingPower: %w", err)
	}
	script, ok := first[4].([]byte)
	if !ok {
		return model.VotingDetails{}, fmt.Errorf("script: unsupported type %T", first[4])
	}
	url, ok := first[6].(string)
	if !ok {
		return model.VotingDetails{}, fmt.Errorf("discussionUrl: unsupported type %T", first[6])
	}

	return model.VotingDetails{
		StartDate:       startDate,
		SupportRequired: support.Decimal(14).Mul(pctScale),
		MinQuorum:       quorum.Decimal(14).Mul(pctScale),
		VotingPower:     power,
		Script:          append([]byte{}, script...),
		DiscussionURL:   url,
	}, nil
}
