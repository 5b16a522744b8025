package consts

// Program identity.
const (
	ProgramName = "ytbridge"
	ChannelName = "yt_dlp_bridge"
)

// Defaults.
const (
	DefaultArch          = "arm64-v8a"
	DefaultAssetPlatform = "android"
	DefaultListenAddr    = ":8827"
	DefaultLogLevel      = "info"
)

// Result messages.
const (
	MsgCompleted    = "Completed."
	MsgUnknownError = "Unknown error"
	MsgQueueStopped = "download queue stopped"
)
