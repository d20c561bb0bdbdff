package config

const (
	defaultLibraryDir      = "~/library"
	defaultStagingDir      = "~/.local/share/downmix/staging"
	defaultLogDir          = "~/.local/share/downmix/logs"
	defaultFfmpegBinary    = "ffmpeg"
	defaultFfprobeBinary   = "ffprobe"
	defaultCodec           = "ac3"
	defaultSurroundBitrate = "640k"
	defaultStereoBitrate   = "192k"
	defaultWorkers         = 1
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultNtfyTimeout     = 10
)

func defaultExtensions() []string {
	return []string{".mkv", ".mp4", ".m4v", ".avi", ".mov"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Tools: Tools{
			Ffmpeg:  defaultFfmpegBinary,
			Ffprobe: defaultFfprobeBinary,
		},
		Synthesis: Synthesis{
			Codec:           defaultCodec,
			SurroundBitrate: defaultSurroundBitrate,
			StereoBitrate:   defaultStereoBitrate,
			Stereo:          false,
		},
		Batch: Batch{
			Workers:    defaultWorkers,
			Extensions: defaultExtensions(),
		},
		Journal: Journal{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			RunStarted:     true,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
