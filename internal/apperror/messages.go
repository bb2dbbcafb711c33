package apperror

// messages maps error codes to human-readable messages.
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeRPCConnectionFailed: "Failed to connect to RPC node",
	CodeRPCCallFailed:       "RPC call failed",
	CodeContractCallFailed:  "Smart contract call failed",
	CodeGasPriceUnavailable: "Gas price unavailable",

	CodeQuoteFailed:      "Failed to get venue quote",
	CodePoolNotFound:     "Liquidity pool not found",
	CodeReservesFailed:   "Failed to read pool reserves",
	CodeVenueUnsupported: "Operation not supported by venue kind",

	CodeReferenceFeedDown:   "Reference price feed unavailable",
	CodePriceUnavailable:    "USD price unavailable",
	CodeStaleMarketData:     "Market data is stale",
	CodeWebSocketConnection: "WebSocket connection error",

	CodeMalformedCandidate: "Malformed opportunity candidate",
	CodeHistoryStoreFailed: "Spread history store failure",
}
