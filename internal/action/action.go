// Package action reads what a governance vote would execute from its EVM script.
package action

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/model"
)

// ScriptDecoder classifies a vote script. Implementations must be pure.
type ScriptDecoder interface {
	DecodeAction(script []byte) (model.VotingAction, bool)
}

// Token is a registry entry the heuristic matches against.
type Token struct {
	Symbol   string
	Decimals int32
	Address  common.Address
}

// DefaultTokens are the treasury tokens votes have historically paid out in.
var DefaultTokens = []Token{
	{Symbol: "USDC", Decimals: 6, Address: common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")},
}

var (
	selectorTransfer        = []byte{0xa9, 0x05, 0x9c, 0xbb}
	selectorInvalidTransfer = []byte{0x9d, 0x61, 0xd2, 0x34}
)

// Offsets into an agent-execute script (spec id, executor, length, execute(target, value, data)).
const (
	tokenOffset     = 0x20 + 12
	selectorOffset  = 5 * 32
	recipientOffset = 5*32 + 4 + 12
	amountOffset    = recipientOffset + common.AddressLength
	scriptMinLength = amountOffset + 32
)

// HeuristicDecoder matches fixed offsets of a single agent call forwarding an
// ERC20 transfer. It recognises nothing else.
type HeuristicDecoder struct {
	tokens []Token
}

func NewHeuristicDecoder(tokens ...Token) *HeuristicDecoder {
	if len(tokens) == 0 {
		tokens = DefaultTokens
	}
	return &HeuristicDecoder{tokens: tokens}
}

// DecodeAction returns false for an empty script, a script too short to hold
// a transfer, or a script whose call target is not a registered token.
func (d *HeuristicDecoder) DecodeAction(script []byte) (model.VotingAction, bool) {
	if len(script) < scriptMinLength {
		return model.VotingAction{}, false
	}

	target := common.BytesToAddress(script[tokenOffset : tokenOffset+common.AddressLength])
	for _, token := range d.tokens {
		if token.Address != target {
			continue
		}
		recipient := common.BytesToAddress(script[recipientOffset:amountOffset])
		return model.VotingAction{
			Action:   classify(script[selectorOffset : selectorOffset+4]),
			Token:    token.Symbol,
			Amount:   model.AmountFromBytes(script[amountOffset : amountOffset+32]),
			Decimals: token.Decimals,
			Wallet:   &recipient,
		}, true
	}
	return model.VotingAction{}, false
}

func classify(selector []byte) model.ActionSignature {
	switch {
	case bytes.Equal(selector, selectorTransfer):
		return model.ActionTransfer
	case bytes.Equal(selector, selectorInvalidTransfer):
		return model.ActionInvalidTransfer
	default:
		return model.ActionUnknownSignature
	}
}
