package uniswapv2

// swapGasEstimate is the gas a single constant-product swap burns.
// V2 pairs have no quoter contract, so this is a fixed figure rather
// than a per-call estimate.
const swapGasEstimate = 120_000

// FactoryABI covers getPair, the only factory call we make.
const FactoryABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "tokenA", "type": "address"},
			{"internalType": "address", "name": "tokenB", "type": "address"}
		],
		"name": "getPair",
		"outputs": [
			{"internalType": "address", "name": "pair", "type": "address"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// PairABI covers token0 and getReserves on a V2 pair.
const PairABI = `[
	{
		"inputs": [],
		"name": "token0",
		"outputs": [
			{"internalType": "address", "name": "", "type": "address"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
