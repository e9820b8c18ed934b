package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

const poolABIJSON = `[
  {"inputs": [], "name": "minApr", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "maxApr", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "EPOCH_LENGTH", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "REWARD_VESTING_PERIOD", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "unstakeWaitPeriod", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "stakeTarget", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const supplyABIJSON = `[
  {"inputs": [], "name": "getCirculatingSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getLockedByGovernance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getLockedRewards", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getLockedVestings", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getTimelocked", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getTotalLocked", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "API3_POOL", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "API3_TOKEN", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "TIMELOCK_MANAGER", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "PRIMARY_TREASURY", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "SECONDARY_TREASURY", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "V1_TREASURY", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"}
]`

const convenienceABIJSON = `[
  {
    "inputs": [
      {"internalType": "enum IApi3Voting.VotingAppType", "name": "votingAppType", "type": "uint8"},
      {"internalType": "address", "name": "userAddress", "type": "address"},
      {"internalType": "uint256[]", "name": "voteIds", "type": "uint256[]"}
    ],
    "name": "getStaticVoteData",
    "outputs": [
      {"internalType": "uint64[]", "name": "startDate", "type": "uint64[]"},
      {"internalType": "uint64[]", "name": "supportRequired", "type": "uint64[]"},
      {"internalType": "uint64[]", "name": "minAcceptQuorum", "type": "uint64[]"},
      {"internalType": "uint256[]", "name": "votingPower", "type": "uint256[]"},
      {"internalType": "bytes[]", "name": "script", "type": "bytes[]"},
      {"internalType": "uint256[]", "name": "userVotingPowerAt", "type": "uint256[]"},
      {"internalType": "string[]", "name": "discussionUrl", "type": "string[]"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
	poolABI             abi.ABI
	poolABIOnce         sync.Once
	poolABIErr          error
	supplyABI           abi.ABI
	supplyABIOnce       sync.Once
	supplyABIErr        error
	convenienceABI      abi.ABI
	convenienceABIOnce  sync.Once
	convenienceABIErr   error
)

func erc20ABIStringInstance() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

func erc20ABIBytes32Instance() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// PoolABI returns the staking pool parameter getters.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}

// SupplyABI returns the getters of the token supply contract.
func SupplyABI() (abi.ABI, error) {
	supplyABIOnce.Do(func() {
		supplyABI, supplyABIErr = abi.JSON(strings.NewReader(supplyABIJSON))
	})
	return supplyABI, supplyABIErr
}

// ConvenienceABI returns the DAO convenience contract's getStaticVoteData.
func ConvenienceABI() (abi.ABI, error) {
	convenienceABIOnce.Do(func() {
		convenienceABI, convenienceABIErr = abi.JSON(strings.NewReader(convenienceABIJSON))
	})
	return convenienceABI, convenienceABIErr
}
