package conf

const (
	APP_NAME = "zeroqcm"
	APP_DESC = "AI credential pool and quota service"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	Author    = "KNIGHTABDO"
	Repo      = "https://github.com/KNIGHTABDO/zeroqcm-sub001"
)
