package video_fetch

// AutoProvider selects whichever registered Provider matches first, in priority order.
const AutoProvider = "auto"

// Config selects which Provider and Downloader a Pipeline uses.
type Config struct {
	// Provider is a registered provider name, or AutoProvider.
	Provider   string
	Downloader string
}

func NewConfig() Config {
	return Config{
		Provider:   "yt-dlp",
		Downloader: "aria2c",
	}
}
