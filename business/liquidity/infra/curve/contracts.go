package curve

// exchangeGasEstimate is the gas a stable-swap exchange burns. Curve
// pools expose no per-call gas figure, so this is fixed.
const exchangeGasEstimate = 250_000

// PoolABI covers get_dy and balances on a stable-swap pool.
const PoolABI = `[
	{
		"inputs": [
			{"internalType": "int128", "name": "i", "type": "int128"},
			{"internalType": "int128", "name": "j", "type": "int128"},
			{"internalType": "uint256", "name": "dx", "type": "uint256"}
		],
		"name": "get_dy",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "i", "type": "uint256"}
		],
		"name": "balances",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
