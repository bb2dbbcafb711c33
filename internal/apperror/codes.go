package apperror

// Code represents a unique error code for the application.
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Chain / RPC errors
const (
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeRPCCallFailed       Code = "RPC_CALL_FAILED"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
	CodeGasPriceUnavailable Code = "GAS_PRICE_UNAVAILABLE"
)

// Liquidity venue errors
const (
	CodeQuoteFailed      Code = "QUOTE_FAILED"
	CodePoolNotFound     Code = "POOL_NOT_FOUND"
	CodeReservesFailed   Code = "RESERVES_FAILED"
	CodeVenueUnsupported Code = "VENUE_UNSUPPORTED"
)

// Market data errors
const (
	CodeReferenceFeedDown   Code = "REFERENCE_FEED_DOWN"
	CodePriceUnavailable    Code = "PRICE_UNAVAILABLE"
	CodeStaleMarketData     Code = "STALE_MARKET_DATA"
	CodeWebSocketConnection Code = "WEBSOCKET_CONNECTION_ERROR"
)

// Validation pipeline errors (infrastructure faults only; business
// rejections are verdict values, never errors)
const (
	CodeMalformedCandidate Code = "MALFORMED_CANDIDATE"
	CodeHistoryStoreFailed Code = "HISTORY_STORE_FAILED"
)
