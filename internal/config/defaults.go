package config

const (
	defaultConfigPath     = "~/.config/viflac/config.toml"
	projectConfigName     = "viflac.toml"
	defaultStateDir       = "~/.local/share/viflac"
	defaultExtension      = ".flac"
	defaultReader         = ReaderMetaflac
	defaultMetaflacBinary = "metaflac"
	defaultFFprobeBinary  = "ffprobe"
	defaultOnCollision    = CollisionFail
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Tag reader backends.
const (
	ReaderMetaflac = "metaflac"
	ReaderFFprobe  = "ffprobe"
)

// Rename collision policies.
const (
	CollisionFail      = "fail"
	CollisionOverwrite = "overwrite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Tags: Tags{
			Extension:      defaultExtension,
			Reader:         defaultReader,
			MetaflacBinary: defaultMetaflacBinary,
			FFprobeBinary:  defaultFFprobeBinary,
		},
		Rename: Rename{
			OnCollision: defaultOnCollision,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
