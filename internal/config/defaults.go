package config

const (
	defaultWorkerBaseURL         = "http://127.0.0.1:8000"
	defaultWorkerModelSize       = "medium"
	defaultWorkerLanguage        = "en"
	defaultWorkerRequestTimeout  = 60
	defaultMaxReconnectAttempts  = 5
	defaultReconnectInterval     = 3
	defaultHandshakeTimeout      = 10
	defaultMinSimilarity         = 50.0
	defaultSyncOffsetThresholdMs = 500
	defaultStateDir              = "~/.local/share/indexer"
	defaultLogDir                = "~/.local/share/indexer/logs"
	defaultMediaRoot             = "~"
	defaultPanel                 = "extract"
	defaultLogLevel              = "info"
)

// defaultFallbackLanguages is the fixed search order appended after the
// primary language during multilingual acquisition.
func defaultFallbackLanguages() []string {
	return []string{"en", "ko", "ja", "zh", "es", "fr", "de", "it"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Worker: Worker{
			BaseURL:        defaultWorkerBaseURL,
			ModelSize:      defaultWorkerModelSize,
			Language:       defaultWorkerLanguage,
			RequestTimeout: defaultWorkerRequestTimeout,
		},
		Push: Push{
			MaxReconnectAttempts: defaultMaxReconnectAttempts,
			ReconnectInterval:    defaultReconnectInterval,
			HandshakeTimeout:     defaultHandshakeTimeout,
		},
		Subtitles: Subtitles{
			FallbackLanguages:     defaultFallbackLanguages(),
			MultilingualFallback:  true,
			MinSimilarity:         defaultMinSimilarity,
			SyncOffsetThresholdMs: defaultSyncOffsetThresholdMs,
		},
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			MediaRoot: defaultMediaRoot,
		},
		UI: UI{
			DefaultPanel: defaultPanel,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
