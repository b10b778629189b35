package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeServiceTimeout:     "Service request timeout",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeGasPriceFetchFailed:      "Failed to fetch gas price",
	CodePoolNotFound:             "Liquidity pool not found",
	CodeReserveFetchFailed:       "Failed to fetch pool reserves",
	CodeEmptyReserves:            "Pool reported zero reserves",

	CodePriceCalculationFailed: "Price calculation failed",
	CodeInsufficientLiquidity:  "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:       "Invalid trade size",
	CodeExecutionFailed:        "Trade execution failed",
	CodeTradingHalted:          "Trading halted by daily circuit breaker",

	CodeCircuitOpen: "Circuit breaker is open",
}
