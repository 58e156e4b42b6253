package config

const (
	defaultSettingsPath = "~/.config/rqservice/settings.toml"
	defaultLogFormat    = "console"
	defaultLogColor     = "auto"
	defaultNullDevice   = "/dev/null"
	defaultWorkDir      = "/"
)

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Logging: Logging{
			Format:  defaultLogFormat,
			Outputs: []string{"stderr"},
			Color:   defaultLogColor,
		},
		Daemon: Daemon{
			NullDevice: defaultNullDevice,
			WorkDir:    defaultWorkDir,
		},
	}
}
