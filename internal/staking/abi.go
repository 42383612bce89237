package staking

// One ABI per protocol version: the three pool layouts are
// incompatible and must stay distinct schemas, not a unified struct.

const poolV1ABIJSON = `[
  {
    "inputs": [{"internalType": "uint256", "name": "pid", "type": "uint256"}],
    "name": "poolInfo",
    "outputs": [
      {"internalType": "address", "name": "stakeToken", "type": "address"},
      {"internalType": "address", "name": "rewardToken", "type": "address"},
      {"internalType": "uint256", "name": "accRewardPerShare", "type": "uint256"},
      {"internalType": "uint256", "name": "lastRewardTime", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardPerSecond", "type": "uint256"},
      {"internalType": "uint256", "name": "endTime", "type": "uint256"},
      {"internalType": "uint256", "name": "totalStaked", "type": "uint256"},
      {"internalType": "bool", "name": "paused", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "pid", "type": "uint256"},
      {"internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "userInfo",
    "outputs": [
      {"internalType": "uint256", "name": "amount", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardDebt", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const poolV2ABIJSON = `[
  {
    "inputs": [{"internalType": "uint256", "name": "pid", "type": "uint256"}],
    "name": "poolInfo",
    "outputs": [
      {"internalType": "address", "name": "stakeToken", "type": "address"},
      {"internalType": "address", "name": "rewardToken", "type": "address"},
      {"internalType": "uint256", "name": "accRewardPerShare", "type": "uint256"},
      {"internalType": "uint256", "name": "lastRewardTime", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardPerSecond", "type": "uint256"},
      {"internalType": "uint256", "name": "endTime", "type": "uint256"},
      {"internalType": "uint256", "name": "totalStaked", "type": "uint256"},
      {"internalType": "bool", "name": "paused", "type": "bool"},
      {"internalType": "string", "name": "label", "type": "string"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "pid", "type": "uint256"},
      {"internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "userInfo",
    "outputs": [
      {"internalType": "uint256", "name": "amount", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardDebt", "type": "uint256"},
      {"internalType": "uint256", "name": "lockEnd", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const poolV3ABIJSON = `[
  {
    "inputs": [{"internalType": "uint256", "name": "pid", "type": "uint256"}],
    "name": "poolInfo",
    "outputs": [
      {"internalType": "address", "name": "stakeToken", "type": "address"},
      {"internalType": "address", "name": "rewardToken", "type": "address"},
      {"internalType": "uint256", "name": "rewardPerSecond", "type": "uint256"},
      {"internalType": "uint256", "name": "accRewardPerShare", "type": "uint256"},
      {"internalType": "uint256", "name": "lastRewardTime", "type": "uint256"},
      {"internalType": "uint256", "name": "endTime", "type": "uint256"},
      {"internalType": "uint256", "name": "totalStaked", "type": "uint256"},
      {"internalType": "bool", "name": "paused", "type": "bool"},
      {"internalType": "string", "name": "label", "type": "string"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "pid", "type": "uint256"},
      {"internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "userInfo",
    "outputs": [
      {"internalType": "uint256", "name": "amount", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardDebt", "type": "uint256"},
      {"internalType": "uint256", "name": "lockEnd", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`
