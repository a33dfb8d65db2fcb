package slack

// Export internal functions and types for testing
var (
	TestWithCacheTTL = WithCacheTTL

	BuildAssignedBlocks      = buildAssignedBlocks
	BuildStatusChangedBlocks = buildStatusChangedBlocks
)
