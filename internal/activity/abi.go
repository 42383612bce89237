package activity

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const controllerABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "cornAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "wplsAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "liquidity", "type": "uint256"}
    ],
    "name": "LiquidityAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "cornUsed", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "wplsUsed", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpBurned", "type": "uint256"}
    ],
    "name": "LPBurnExecuted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "burnedAmount", "type": "uint256"}
    ],
    "name": "BuybackBurn",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "pairSpent", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "cornBurned", "type": "uint256"}
    ],
    "name": "BuybackBurnExecuted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "destination", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "Routed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "SentToStaking",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  }
]`

var (
	controllerABI     abi.ABI
	controllerABIOnce sync.Once
	controllerABIErr  error
)

// ControllerABI returns the parsed burn-controller event ABI.
func ControllerABI() (abi.ABI, error) {
	controllerABIOnce.Do(func() {
		controllerABI, controllerABIErr = abi.JSON(strings.NewReader(controllerABIJSON))
	})
	return controllerABI, controllerABIErr
}
