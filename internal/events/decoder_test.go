package events

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/logreader"
	"daoTracker/internal/model"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestDecodeFixedShapes(t *testing.T) {
	dec := NewDecoder(nil)

	cases := []struct {
		name    string
		kind    Kind
		indexed []common.Hash
		types   []string
		values  []interface{}
		want    Event
	}{
		{
			name:    "delegated",
			kind:    KindDelegated,
			indexed: []common.Hash{topicFromAddress(alice), topicFromAddress(bob)},
			types:   []string{"uint256", "uint256"},
			values:  []interface{}{big.NewInt(1000), big.NewInt(4000)},
			want:    Delegated{From: alice, To: bob, Shares: model.NewAmount(1000), TotalDelegatedTo: model.NewAmount(4000)},
		},
		{
			name:    "delegated v0",
			kind:    KindDelegatedV0,
			indexed: []common.Hash{topicFromAddress(alice), topicFromAddress(bob)},
			types:   []string{"uint256"},
			values:  []interface{}{big.NewInt(1000)},
			want:    DelegatedV0{From: alice, To: bob, Shares: model.NewAmount(1000)},
		},
		{
			name:    "updated delegation",
			kind:    KindUpdatedDelegation,
			indexed: []common.Hash{topicFromAddress(alice), topicFromAddress(bob)},
			types:   []string{"bool", "uint256", "uint256"},
			values:  []interface{}{true, big.NewInt(5), big.NewInt(1005)},
			want:    UpdatedDelegation{User: alice, Delegate: bob, Delta: true, Shares: model.NewAmount(5), TotalDelegatedTo: model.NewAmount(1005)},
		},
		{
			name:    "staked",
			kind:    KindStaked,
			indexed: []common.Hash{topicFromAddress(alice)},
			types:   []string{"uint256", "uint256", "uint256", "uint256", "uint256", "uint256"},
			values:  []interface{}{big.NewInt(1000), big.NewInt(990), big.NewInt(0), big.NewInt(990), big.NewInt(5000), big.NewInt(5100)},
			want: Staked{
				User:         alice,
				Amount:       model.NewAmount(1000),
				MintedShares: model.NewAmount(990),
				UserUnstaked: model.NewAmount(0),
				UserShares:   model.NewAmount(990),
				TotalShares:  model.NewAmount(5000),
				TotalStake:   model.NewAmount(5100),
			},
		},
		{
			name:    "scheduled unstake",
			kind:    KindScheduledUnstake,
			indexed: []common.Hash{topicFromAddress(alice)},
			types:   []string{"uint256", "uint256", "uint256", "uint256"},
			values:  []interface{}{big.NewInt(10), big.NewInt(9), big.NewInt(1700000000), big.NewInt(981)},
			want:    ScheduledUnstake{User: alice, Amount: model.NewAmount(10), Shares: model.NewAmount(9), ScheduledFor: model.NewAmount(1700000000), UserShares: model.NewAmount(981)},
		},
		{
			name:    "withdrawn to pool",
			kind:    KindWithdrawnToPool,
			indexed: []common.Hash{topicFromAddress(alice)},
			types:   []string{"address", "address"},
			values:  []interface{}{carol, bob},
			want:    WithdrawnToPool{Recipient: alice, PoolAddress: carol, Beneficiary: bob},
		},
		{
			name:   "set dao apps",
			kind:   KindSetDaoApps,
			types:  []string{"address", "address", "address", "address"},
			values: []interface{}{alice, bob, carol, alice},
			want:   SetDaoApps{AgentAppPrimary: alice, AgentAppSecondary: bob, VotingAppPrimary: carol, VotingAppSecondary: alice},
		},
		{
			name:    "minted reward",
			kind:    KindMintedReward,
			indexed: []common.Hash{common.BigToHash(big.NewInt(3))},
			types:   []string{"uint256", "uint256", "uint256"},
			values:  []interface{}{big.NewInt(1000), big.NewInt(2500000000000000), big.NewInt(2000)},
			want:    MintedReward{EpochIndex: 3, Amount: model.NewAmount(1000), NewAPR: model.NewAmount(2500000000000000), TotalStake: model.NewAmount(2000)},
		},
		{
			name:    "ownership transferred",
			kind:    KindOwnershipTransferred,
			indexed: []common.Hash{topicFromAddress(alice), topicFromAddress(bob)},
			want:    OwnershipTransferred{From: alice, To: bob},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := buildLog(t, tc.kind, tc.indexed, tc.types, tc.values...)
			event, err := dec.TryDecode(nil, log)
			require.NoError(t, err)
			assert.Equal(t, tc.want, event)
		})
	}
}

func TestDecodeVotesUseAgentHint(t *testing.T) {
	dec := NewDecoder(nil)
	secondary := model.AgentSecondary

	start := buildLog(t, KindStartVote, []common.Hash{common.BigToHash(big.NewInt(7)), topicFromAddress(alice)}, []string{"string"}, "fund the grant")
	assert.Equal(t, StartVote{Agent: model.AgentSecondary, VoteID: 7, Creator: alice, Metadata: "fund the grant"}, dec.Decode(&secondary, start))

	cast := buildLog(t, KindCastVote, []common.Hash{common.BigToHash(big.NewInt(7)), topicFromAddress(bob)}, []string{"bool", "uint256"}, false, big.NewInt(500))
	assert.Equal(t, CastVote{Agent: model.AgentSecondary, VoteID: 7, Voter: bob, Supports: false, Stake: model.NewAmount(500)}, dec.Decode(&secondary, cast))

	exec := buildLog(t, KindExecuteVote, []common.Hash{common.BigToHash(big.NewInt(7))}, nil)
	event := dec.Decode(&secondary, exec)
	assert.Equal(t, ExecuteVote{Agent: model.AgentSecondary, VoteID: 7}, event)

	key, ok := VotingKey(event)
	require.True(t, ok)
	assert.Equal(t, "s-7", model.FormatVotingKey(key))
}

func TestDecodePanicsWithoutAgentHint(t *testing.T) {
	dec := NewDecoder(nil)
	exec := buildLog(t, KindExecuteVote, []common.Hash{common.BigToHash(big.NewInt(7))}, nil)
	assert.Panics(t, func() { dec.Decode(nil, exec) })
}

func TestDecodeAddressLists(t *testing.T) {
	dec := NewDecoder(nil)
	log := buildLog(t, KindSetVestingAddresses, nil, []string{"address[]"}, []common.Address{alice, carol})

	event := dec.Decode(nil, log)
	assert.Equal(t, SetVestingAddresses{Addresses: []common.Address{alice, carol}}, event)
	assert.Equal(t, []common.Address{alice, carol}, WalletsTouched(event))
}

func TestDecodeUnknownNeverPanics(t *testing.T) {
	dec := NewDecoder(nil)

	unknown := logreader.RawLog{Topics: []common.Hash{common.HexToHash("0xdeadbeef")}, Data: []byte{1, 2, 3}}
	assert.Equal(t, Unknown{Topic0: common.HexToHash("0xdeadbeef")}, dec.Decode(nil, unknown))

	assert.Equal(t, Unknown{}, dec.Decode(nil, logreader.RawLog{}))
}

func TestDecodeMalformedKnownSignature(t *testing.T) {
	dec := NewDecoder(nil)
	topic, ok := Signature(KindStaked)
	require.True(t, ok)

	// Staked declares six data words; only one is present.
	short := logreader.RawLog{Topics: []common.Hash{topic, topicFromAddress(alice)}, Data: make([]byte, 32)}
	event, err := dec.TryDecode(nil, short)
	require.Error(t, err)
	assert.ErrorIs(t, err, logreader.ErrShapeMismatch)
	assert.Equal(t, Unknown{Topic0: topic}, event)
	assert.Equal(t, Unknown{Topic0: topic}, dec.Decode(nil, short))
}

func TestDecodeOversizedVoteIDIsUnknown(t *testing.T) {
	dec := NewDecoder(nil)
	primary := model.AgentPrimary
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	exec := buildLog(t, KindExecuteVote, []common.Hash{common.BigToHash(huge)}, nil)

	topic, _ := Signature(KindExecuteVote)
	assert.Equal(t, Unknown{Topic0: topic}, dec.Decode(&primary, exec))
}

func TestDecodeIgnoredSignature(t *testing.T) {
	dec := NewDecoder(nil)
	topic := common.HexToHash("0x2790b90165fd3973ad7edde4eca71b4f8808dd4857a2a3a3e8ae5642a5cb196e")
	log := logreader.RawLog{Topics: []common.Hash{topic, common.BigToHash(big.NewInt(1)), topicFromAddress(alice)}, Data: make([]byte, 32)}

	event := dec.Decode(nil, log)
	assert.Equal(t, Ignored{Topic0: topic}, event)
	assert.True(t, IsNoise(event))
	assert.True(t, dec.CanDecode(topic))
}

func TestDecodeIsIdempotent(t *testing.T) {
	dec := NewDecoder(nil)
	log := buildLog(t, KindDeposited, []common.Hash{topicFromAddress(alice)}, []string{"uint256", "uint256"}, big.NewInt(77), big.NewInt(3))
	assert.Equal(t, dec.Decode(nil, log), dec.Decode(nil, log))
}

func TestWalletsTouchedAndBroadcast(t *testing.T) {
	assert.Equal(t, []common.Address{alice, bob}, WalletsTouched(Delegated{From: alice, To: bob}))
	assert.Equal(t, []common.Address{carol}, WalletsTouched(CastVote{Voter: carol}))
	assert.Equal(t, []common.Address{alice, carol}, WalletsTouched(WithdrawnToPool{Recipient: alice, PoolAddress: bob, Beneficiary: carol}))
	assert.Empty(t, WalletsTouched(Transfer{From: alice, To: bob}))
	assert.Empty(t, WalletsTouched(MintedReward{}))

	assert.True(t, IsBroadcast(MintedRewardV0{}))
	assert.False(t, IsBroadcast(Staked{}))

	_, ok := VotingKey(Staked{})
	assert.False(t, ok)
}

func TestOnChainEventJSONRoundTrip(t *testing.T) {
	used := model.NewAmount(21000)
	in := OnChainEvent{
		Entry:       StartVote{Agent: model.AgentPrimary, VoteID: 9, Creator: alice, Metadata: "m"},
		Timestamp:   1700000000,
		BlockNumber: 12,
		TxHash:      common.HexToHash("0xabc"),
		LogIndex:    4,
		Fee:         &model.TxFee{GasPrice: model.NewAmount(30), Gas: model.NewAmount(50000), GasUsed: &used},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Contains(t, string(envelope["entry"]), `"type":"StartVote"`)

	var out OnChainEvent
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalEventRejectsUnknownType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"Nope","data":{}}`))
	assert.Error(t, err)
}

func buildLog(t *testing.T, kind Kind, indexed []common.Hash, types []string, values ...interface{}) logreader.RawLog {
	t.Helper()
	topic, ok := Signature(kind)
	require.True(t, ok, "no signature for %s", kind)

	args := make(abi.Arguments, 0, len(types))
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Type: typ})
	}
	data, err := args.Pack(values...)
	require.NoError(t, err)

	return logreader.RawLog{Topics: append([]common.Hash{topic}, indexed...), Data: data}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
