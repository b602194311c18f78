package config

const (
	defaultDatasetDir         = "~/datasets/clapper"
	defaultLogDir             = "~/.local/share/clapper/logs"
	defaultFPS                = 30
	defaultWidth              = 640
	defaultHeight             = 480
	defaultDurationSeconds    = 10.0
	defaultEpisodes           = 10
	defaultReadTimeoutMillis  = 1000
	defaultTickDeadlineMillis = 100
	defaultLookahead          = 4
	defaultChunkSize          = 1000
	defaultTask               = "Custom task"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultCodec              = "libx264"
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
	defaultCameraName         = "front"
	defaultCameraDevice       = "/dev/video0"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetDir: defaultDatasetDir,
			LogDir:     defaultLogDir,
		},
		Capture: Capture{
			FPS:                defaultFPS,
			Width:              defaultWidth,
			Height:             defaultHeight,
			DurationSeconds:    defaultDurationSeconds,
			Episodes:           defaultEpisodes,
			ReadTimeoutMillis:  defaultReadTimeoutMillis,
			TickDeadlineMillis: defaultTickDeadlineMillis,
			Lookahead:          defaultLookahead,
		},
		Cameras: []Camera{
			{Name: defaultCameraName, Device: defaultCameraDevice},
		},
		Dataset: Dataset{
			ChunkSize: defaultChunkSize,
			Task:      defaultTask,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Codec:         defaultCodec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
