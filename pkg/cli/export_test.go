package cli

var (
	ResolveChannels = resolveChannels
	PrintSummary    = printSummary
	GetIndexConfig  = getIndexConfig
	ValidateDB      = validateDB

	ErrInconsistentDB = errInconsistentDB
)
