package config

const (
	defaultConfigPath     = "~/.config/clientdedup/config.toml"
	projectConfigFile     = "clientdedup.toml"
	defaultInputDir       = "."
	defaultOutputDir      = "./output"
	defaultLogDir         = "~/.local/share/clientdedup/logs"
	defaultClientFile     = "Client.csv"
	defaultEnrollmentFile = "Enrollment.csv"
	defaultExitFile       = "Exit.csv"
	defaultSentinelDOB    = "1/1/1900"
	defaultAdultAge       = 18
	defaultTwinSSNPolicy  = "differ"
	defaultOutputSuffix   = "Output"
	defaultNewIDColumn    = "NewPersonalID"
	defaultWorkers        = 4
	defaultResultsDBName  = "resolution.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRetentionDays  = 30

	envInputDir  = "CLIENTDEDUP_INPUT_DIR"
	envOutputDir = "CLIENTDEDUP_OUTPUT_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Inputs: Inputs{
			ClientFile:     defaultClientFile,
			EnrollmentFile: defaultEnrollmentFile,
			ExitFile:       defaultExitFile,
		},
		Matching: Matching{
			SentinelDOB:   defaultSentinelDOB,
			InvalidSSNs:   []string{"999999999", "000000000"},
			AdultAge:      defaultAdultAge,
			TwinSSNPolicy: defaultTwinSSNPolicy,
			StrictRule:    true,
			LenientRule:   true,
		},
		Output: Output{
			Suffix:      defaultOutputSuffix,
			NewIDColumn: defaultNewIDColumn,
			Workers:     defaultWorkers,
			TwinExtract: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
