package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/logreader"
	"daoTracker/internal/model"
)

// shape describes how one signature is laid out and how its fields are read.
type shape struct {
	kind   Kind
	topics int
	words  int
	// vote events need the governance track of the emitting contract.
	agent bool
	build func(f *fields, agent model.VotingAgent) Event
}

// signatures is the topic0 dispatch table. V0 entries decode historical blocks
// emitted before the pool contract was upgraded.
var signatures = map[common.Hash]shape{
	hash("24d7bda8602b916d64417f0dbfe2e2e88ec9b1157bd9f596dfdb91ba26624e04"): {kind: KindDelegated, topics: 2, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return Delegated{From: f.address(), To: f.address(), Shares: f.value(), TotalDelegatedTo: f.value()}
	}},
	hash("e5541a6b6103d4fa7e021ed54fad39c66f27a76bd13d374cf6240ae6bd0bb72b"): {kind: KindDelegatedV0, topics: 2, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return DelegatedV0{From: f.address(), To: f.address(), Shares: f.value()}
	}},
	hash("3aace7340547de7b9156593a7652dc07ee900cea3fd8f82cb6c9d38b40829802"): {kind: KindUndelegated, topics: 2, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return Undelegated{From: f.address(), To: f.address(), Shares: f.value(), TotalDelegatedTo: f.value()}
	}},
	hash("4d10bd049775c77bd7f255195afba5088028ecb3c7c277d393ccff7934f2f92c"): {kind: KindUndelegatedV0, topics: 2, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return UndelegatedV0{From: f.address(), To: f.address(), Shares: f.value()}
	}},
	hash("f310def5b4718cefe3603eb46259d8061fd58003695cf952de94c53e14dbb309"): {kind: KindUpdatedDelegation, topics: 2, words: 3, build: func(f *fields, _ model.VotingAgent) Event {
		return UpdatedDelegation{User: f.address(), Delegate: f.address(), Delta: f.bool(), Shares: f.value(), TotalDelegatedTo: f.value()}
	}},
	hash("251830cd12788c7474148132132ab205112e7b9bba739f0e69c8d4a6a54e2159"): {kind: KindScheduledUnstake, topics: 1, words: 4, build: func(f *fields, _ model.VotingAgent) Event {
		return ScheduledUnstake{User: f.address(), Amount: f.value(), Shares: f.value(), ScheduledFor: f.value(), UserShares: f.value()}
	}},
	hash("06fbd2297e6f6f7701a9cf99685a6af911cab275ec5c75ac7aaaf13b5cf3d61f"): {kind: KindScheduledUnstakeV0, topics: 1, words: 3, build: func(f *fields, _ model.VotingAgent) Event {
		return ScheduledUnstakeV0{User: f.address(), Amount: f.value(), Shares: f.value(), ScheduledFor: f.value()}
	}},
	hash("c16be9a586414a157dd46b4d023aa9997a025dd1cbbaa67ac0c1b8273a5eaf55"): {kind: KindStaked, topics: 1, words: 6, build: func(f *fields, _ model.VotingAgent) Event {
		return Staked{
			User:         f.address(),
			Amount:       f.value(),
			MintedShares: f.value(),
			UserUnstaked: f.value(),
			UserShares:   f.value(),
			TotalShares:  f.value(),
			TotalStake:   f.value(),
		}
	}},
	hash("1449c6dd7851abc30abf37f57715f492010519147cc2652fbc38202c18a6ee90"): {kind: KindStakedV0, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return StakedV0{User: f.address(), Amount: f.value(), MintedShares: f.value()}
	}},
	hash("dcfd2b4017d03f7e541021db793b2f9b31e4acdee005f789e52853c390e3e962"): {kind: KindUnstaked, topics: 1, words: 4, build: func(f *fields, _ model.VotingAgent) Event {
		return Unstaked{User: f.address(), Amount: f.value(), UserUnstaked: f.value(), TotalShares: f.value(), TotalStake: f.value()}
	}},
	hash("0f5bb82176feb1b5e747e28471aa92156a04d9f3ab9f45f28e2d704232b93f75"): {kind: KindUnstakedV0, topics: 1, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return UnstakedV0{User: f.address(), Amount: f.value()}
	}},
	hash("92ccf450a286a957af52509bc1c9939d1a6a481783e142e41e2499f0bb66ebc6"): {kind: KindWithdrawn, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return Withdrawn{User: f.address(), Amount: f.value(), UserUnstaked: f.value()}
	}},
	hash("7084f5476618d8e60b11ef0d7d3f06914655adb8793e28ff7f018d4c76d505d5"): {kind: KindWithdrawnV0, topics: 1, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return WithdrawnV0{User: f.address(), Amount: f.value()}
	}},
	hash("a2fd4f03989448c5a69bab0c0454f2baf5667413a4e4b87fd7379a8ab69fae3f"): {kind: KindWithdrawnToPool, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return WithdrawnToPool{Recipient: f.address(), PoolAddress: f.address(), Beneficiary: f.address()}
	}},
	hash("ceaef3a8d9336089c649bcf1ea9dd1ae52f5c42ea01f8707ecdd57ea773aa3ee"): {kind: KindUpdatedLastProposalTimestamp, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return UpdatedLastProposalTimestamp{User: f.address(), LastProposalTimestamp: f.value(), VotingApp: f.address()}
	}},
	hash("30df07121af80c9a50a8fcfddf8aa9f537a550edb930294c6370d4c05632ba15"): {kind: KindSetStakeTarget, topics: 0, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return SetStakeTarget{StakeTarget: f.value()}
	}},
	hash("71b1ce304e98c2a645f0c32f4c9e3ae4d5dbe6717a8c17ccefb0083635afdc15"): {kind: KindSetDaoApps, topics: 0, words: 4, build: func(f *fields, _ model.VotingAgent) Event {
		return SetDaoApps{
			AgentAppPrimary:    f.address(),
			AgentAppSecondary:  f.address(),
			VotingAppPrimary:   f.address(),
			VotingAppSecondary: f.address(),
		}
	}},
	hash("6e0fc10bac330e97bc2fd6c13cbb1c1189ddb48a8ce96395650ba8f2bd28f6fc"): {kind: KindMintedReward, topics: 1, words: 3, build: func(f *fields, _ model.VotingAgent) Event {
		return MintedReward{EpochIndex: f.id(), Amount: f.value(), NewAPR: f.value(), TotalStake: f.value()}
	}},
	hash("78fe37d5a5b277d7ec6fe20169a339795b44f3f903e0b793440f63fbccc7d7d9"): {kind: KindMintedRewardV0, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return MintedRewardV0{EpochIndex: f.id(), Amount: f.value(), NewAPR: f.value()}
	}},
	hash("ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"): {kind: KindTransfer, topics: 2, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return Transfer{From: f.address(), To: f.address(), Amount: f.value()}
	}},
	hash("73a19dd210f1a7f902193214c0ee91dd35ee5b4d920cba8d519eca65a7b488ca"): {kind: KindDeposited, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return Deposited{User: f.address(), Amount: f.value(), UserUnstaked: f.value()}
	}},
	hash("2da466a7b24304f47e87fa2e1e5a81b9831ce54fec19055ce277ca2f39ba42c4"): {kind: KindDepositedV0, topics: 1, words: 1, build: func(f *fields, _ model.VotingAgent) Event {
		return DepositedV0{User: f.address(), Amount: f.value()}
	}},
	hash("14ab87851ecf43dc38c282e0307cd24257a3d01d0265ae2ba28764befac8c6cc"): {kind: KindDepositedVesting, topics: 1, words: 5, build: func(f *fields, _ model.VotingAgent) Event {
		return DepositedVesting{
			User:         f.address(),
			Amount:       f.value(),
			Start:        f.value(),
			End:          f.value(),
			UserUnstaked: f.value(),
			UserVesting:  f.value(),
		}
	}},
	hash("d0d7fef3966369afd08c0683ee833a06f6b91787b85a26fa3ef3004ae37484c2"): {kind: KindDepositedByTimelockManager, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return DepositedByTimelockManager{User: f.address(), Amount: f.value(), UserUnstaked: f.value()}
	}},
	hash("dd8c2c092b990b8e3ae25447982d1c2f7f08c6b9bf7303986a4279f946ebd2ea"): {kind: KindVestedTimelock, topics: 1, words: 2, build: func(f *fields, _ model.VotingAgent) Event {
		return VestedTimelock{User: f.address(), Amount: f.value(), UserVesting: f.value()}
	}},
	hash("220c5b95388e82dd8e3a0abed6143750f9bfa4bf73bb6f742e10cf79e551b168"): {kind: KindSetErc20Addresses, topics: 0, words: logreader.Variable, build: func(f *fields, _ model.VotingAgent) Event {
		return SetErc20Addresses{Addresses: f.addresses()}
	}},
	hash("20d5cc5c404f7bcf167ea08ea1136482041e05e5641946d3e3de6690a23fbe39"): {kind: KindSetVestingAddresses, topics: 0, words: logreader.Variable, build: func(f *fields, _ model.VotingAgent) Event {
		return SetVestingAddresses{Addresses: f.addresses()}
	}},
	hash("8be0079c531659141344cd1fd0a4f28419497f9722a3daafe3b4186f6b6457e0"): {kind: KindOwnershipTransferred, topics: 2, words: 0, build: func(f *fields, _ model.VotingAgent) Event {
		return OwnershipTransferred{From: f.address(), To: f.address()}
	}},
	hash("4d72fe0577a3a3f7da968d7b892779dde102519c25527b29cf7054f245c791b9"): {kind: KindStartVote, topics: 2, words: logreader.Variable, agent: true, build: func(f *fields, agent model.VotingAgent) Event {
		return StartVote{Agent: agent, VoteID: f.id(), Creator: f.address(), Metadata: f.text()}
	}},
	hash("b34ee265e3d4f5ec4e8b52d59b2a9be8fceca2f274ebc080d8fba797fea9391f"): {kind: KindCastVote, topics: 2, words: 2, agent: true, build: func(f *fields, agent model.VotingAgent) Event {
		return CastVote{Agent: agent, VoteID: f.id(), Voter: f.address(), Supports: f.bool(), Stake: f.value()}
	}},
	hash("bf8e2b108bb7c980e08903a8a46527699d5e84905a082d56dacb4150725c8cab"): {kind: KindExecuteVote, topics: 1, words: 0, agent: true, build: func(f *fields, agent model.VotingAgent) Event {
		return ExecuteVote{Agent: agent, VoteID: f.id()}
	}},

	// emitted by the agent apps and faucet around proxied calls
	hash("9dcff9d94fbfdb4622d11edb383005f95e78efb446c72d92f8e615c6025c4703"): {kind: KindIgnored, topics: 3, words: 0},
	hash("c59489a810a16d84f59a04fb90817354d9afac3bd0a0b6787c8ccb4ff25ed119"): {kind: KindIgnored, topics: 2, words: logreader.Variable},
	hash("5229a5dba83a54ae8cb5b51bdd6de9474cacbe9dd332f5185f3a4f4f2e3f4ad9"): {kind: KindIgnored, topics: 1, words: logreader.Variable},
	hash("2790b90165fd3973ad7edde4eca71b4f8808dd4857a2a3a3e8ae5642a5cb196e"): {kind: KindIgnored, topics: 2, words: 1},
	hash("c25cfed0b22da6a56f0e5ff784979a0b8623eddf2aee4acd33c2adefb09cbab6"): {kind: KindIgnored, topics: 2, words: logreader.Variable},
}

// Signature returns the topic0 hash for a decodable kind.
func Signature(kind Kind) (common.Hash, bool) {
	for topic, s := range signatures {
		if s.kind == kind && kind != KindIgnored {
			return topic, true
		}
	}
	return common.Hash{}, false
}

func hash(hex string) common.Hash {
	return common.HexToHash("0x" + hex)
}

// fields reads sequentially and keeps the first error, so a builder can be a
// single composite literal.
type fields struct {
	r   *logreader.Reader
	err error
}

func (f *fields) address() common.Address {
	if f.err != nil {
		return common.Address{}
	}
	v, err := f.r.Address()
	f.err = err
	return v
}

func (f *fields) value() model.Amount {
	if f.err != nil {
		return model.Amount{}
	}
	v, err := f.r.Value()
	f.err = err
	return v
}

// id reads a value that must fit in 64 bits (vote ids, epoch indexes).
func (f *fields) id() uint64 {
	v := f.value()
	if f.err != nil {
		return 0
	}
	n, ok := v.Uint64()
	if !ok {
		f.err = fmt.Errorf("%w: id %s exceeds 64 bits", logreader.ErrOutOfBounds, v)
	}
	return n
}

func (f *fields) bool() bool {
	if f.err != nil {
		return false
	}
	v, err := f.r.Bool()
	f.err = err
	return v
}

func (f *fields) text() string {
	if f.err != nil {
		return ""
	}
	v, err := f.r.Text()
	f.err = err
	return v
}

func (f *fields) addresses() []common.Address {
	if f.err != nil {
		return nil
	}
	v, err := f.r.Addresses()
	f.err = err
	return v
}
