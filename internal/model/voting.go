package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// VotingAgent identifies one of the two governance tracks.
type VotingAgent uint8

const (
	AgentPrimary VotingAgent = iota
	AgentSecondary
)

func (a VotingAgent) String() string {
	if a == AgentSecondary {
		return "Secondary"
	}
	return "Primary"
}

// Prefix is the short tag used in textual voting keys.
func (a VotingAgent) Prefix() string {
	if a == AgentSecondary {
		return "s"
	}
	return "p"
}

func (a VotingAgent) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *VotingAgent) UnmarshalText(data []byte) error {
	switch string(data) {
	case "Primary":
		*a = AgentPrimary
	case "Secondary":
		*a = AgentSecondary
	default:
		return fmt.Errorf("unknown voting agent: %q", string(data))
	}
	return nil
}

// VotingKey packs agent and vote id so the two tracks never collide.
func VotingKey(agent VotingAgent, voteID uint64) uint64 {
	return voteID*2 + uint64(agent)
}

// SplitVotingKey reverses VotingKey.
func SplitVotingKey(key uint64) (VotingAgent, uint64) {
	if key%2 == 0 {
		return AgentPrimary, key / 2
	}
	return AgentSecondary, key / 2
}

// FormatVotingKey renders a key as "p-7" or "s-7".
func FormatVotingKey(key uint64) string {
	agent, id := SplitVotingKey(key)
	return agent.Prefix() + "-" + strconv.FormatUint(id, 10)
}

// ParseVotingKey parses the "p-7" / "s-7" form.
func ParseVotingKey(s string) (uint64, error) {
	prefix, rest, ok := strings.Cut(s, "-")
	if !ok {
		return 0, fmt.Errorf("invalid voting id: %q", s)
	}
	var agent VotingAgent
	switch prefix {
	case "p":
		agent = AgentPrimary
	case "s":
		agent = AgentSecondary
	default:
		return 0, fmt.Errorf("invalid voting agent prefix: %q", s)
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid voting id: %q", s)
	}
	return VotingKey(agent, id), nil
}

// ActionSignature classifies the call encoded in a vote script.
type ActionSignature string

const (
	ActionTransfer         ActionSignature = "Transfer"
	ActionInvalidTransfer  ActionSignature = "InvalidTransfer"
	ActionUnknownSignature ActionSignature = "UnknownSignature"
)

// VotingAction is the best-effort reading of what a vote would execute.
type VotingAction struct {
	Action   ActionSignature `json:"action"`
	Token    string          `json:"token"`
	Amount   Amount          `json:"amount"`
	Decimals int32           `json:"decimals"`
	Wallet   *common.Address `json:"wallet,omitempty"`
}

func (a VotingAction) String() string {
	if a.Wallet == nil {
		return string(a.Action)
	}
	return fmt.Sprintf("%s %s %s to %s", a.Action, a.Amount.Decimal(a.Decimals).Ceil().String(), a.Token, strings.ToLower(a.Wallet.Hex()))
}

// Voting is a governance proposal on one of the two tracks.
type Voting struct {
	Key         uint64           `json:"key"`
	Agent       VotingAgent      `json:"agent"`
	VoteID      uint64           `json:"vote_id"`
	Creator     common.Address   `json:"creator"`
	Metadata    string           `json:"metadata"`
	VotedYes    Amount           `json:"voted_yes"`
	VotedNo     Amount           `json:"voted_no"`
	Supporters  []common.Address `json:"supporters"`
	Opponents   []common.Address `json:"opponents"`
	VotesTotal  Amount           `json:"votes_total"`
	Executed    bool             `json:"executed"`
	CreatedAt   uint64           `json:"created_at"`
	BlockNumber uint64           `json:"block_number"`
	Action      *VotingAction    `json:"action,omitempty"`
	Details     *VotingDetails   `json:"details,omitempty"`
}

// VotingDetails is the static vote data read from the governance contracts.
type VotingDetails struct {
	StartDate       uint64          `json:"start_date"`
	SupportRequired decimal.Decimal `json:"support_required"`
	MinQuorum       decimal.Decimal `json:"min_quorum"`
	VotingPower     Amount          `json:"voting_power"`
	Script          hexutil.Bytes   `json:"script"`
	DiscussionURL   string          `json:"discussion_url"`
}

// Clone returns a deep copy.
func (v Voting) Clone() Voting {
	out := v
	out.Supporters = append([]common.Address{}, v.Supporters...)
	out.Opponents = append([]common.Address{}, v.Opponents...)
	if v.Details != nil {
		details := *v.Details
		details.Script = append(hexutil.Bytes{}, v.Details.Script...)
		out.Details = &details
	}
	if v.Action != nil {
		action := *v.Action
		if v.Action.Wallet != nil {
			wallet := *v.Action.Wallet
			action.Wallet = &wallet
		}
		out.Action = &action
	}
	return out
}
