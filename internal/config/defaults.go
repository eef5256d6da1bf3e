package config

const (
	defaultOutputDir = "."
	defaultBufferKiB = 64
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
	defaultEject     = true
	defaultVerify    = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Drive: Drive{
			EjectBetweenDiscs: defaultEject,
		},
		Output: Output{
			Directory: defaultOutputDir,
		},
		Capture: Capture{
			Verify:    defaultVerify,
			BufferKiB: defaultBufferKiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
