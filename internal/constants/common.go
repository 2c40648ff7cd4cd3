package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment  = "prod"
	DevEnvironment   = "dev"
	LocalEnvironment = "local"

	// Service name reported by logs and metrics
	ServiceName = "cyphera-agent"
)

// Basis points
const (
	BasisPointsDenominator = 10000
	MaxSlippageBps         = 5000
)

// Relay polling defaults
const (
	DefaultRelayPollAttempts = 20
	DefaultQuoteDeadlineMs   = 2500
)
