package config

const (
	defaultImagesDir         = "~/.local/share/platepipe/images"
	defaultIllumDir          = "~/.local/share/platepipe/illum"
	defaultStagingDir        = "~/.local/share/platepipe/staging"
	defaultOutputDir         = "~/.local/share/platepipe/output"
	defaultLogDir            = "~/.local/share/platepipe/logs"
	defaultStateDir          = "~/.local/share/platepipe/state"
	defaultCellProfiler      = "cellprofiler"
	defaultToolTimeout       = 3600
	defaultWorkers           = 4
	defaultSiteSkip          = 1
	defaultStaleStagingHours = 48
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultCycles            = 0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImagesDir:  defaultImagesDir,
			IllumDir:   defaultIllumDir,
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		Channels: Channels{
			Painting:  []string{"DNA", "Phalloidin", "CHN2"},
			Barcoding: []string{"DNA", "A", "C", "G", "T"},
			Cycles:    defaultCycles,
		},
		Gates: Gates{
			PaintingCommitted:  false,
			BarcodingCommitted: false,
		},
		Tools: Tools{
			CellProfilerBinary: defaultCellProfiler,
			TimeoutSeconds:     defaultToolTimeout,
		},
		Workflow: Workflow{
			Workers:           defaultWorkers,
			SiteSkip:          defaultSiteSkip,
			StaleStagingHours: defaultStaleStagingHours,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
