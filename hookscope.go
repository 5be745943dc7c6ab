package hookscope

var (
	VERSION = "dev"
	COMMIT  = "unknown"
)
