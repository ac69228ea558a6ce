package config

const (
	defaultConfigPath          = "~/.config/meetscribe/config.toml"
	defaultAudioDir            = "~/.local/share/meetscribe/audio"
	defaultOutputDir           = "~/.local/share/meetscribe/output"
	defaultLogDir              = "~/.local/share/meetscribe/logs"
	defaultWorkDir             = "~/.cache/meetscribe/work"
	defaultWhisperModel        = "large-v3"
	defaultDiarizationModel    = "pyannote/speaker-diarization-3.1"
	defaultLanguage            = "en"
	defaultBatchSize           = 16
	defaultVADMethod           = "silero"
	defaultSampleRate          = 16000
	defaultMinSpeakerDuration  = 1.0
	defaultConfidenceThreshold = 0.5
	defaultWorkers             = 1
	defaultHistoryFile         = "history.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Device values accepted by [models] device.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Placeholder tokens shipped in sample configs. They are treated as unset.
var placeholderTokens = []string{
	"<ENTER-YOUR-TOKEN-HERE>",
	"YOUR_HUGGING_FACE_TOKEN",
	"hf_xxx",
}

func defaultSupportedFormats() []string {
	return []string{".wav", ".mp3", ".m4a", ".flac", ".ogg", ".aac"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir:  defaultAudioDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			WorkDir:   defaultWorkDir,
		},
		Models: Models{
			WhisperModel:     defaultWhisperModel,
			DiarizationModel: defaultDiarizationModel,
			Language:         defaultLanguage,
			Device:           DeviceAuto,
			BatchSize:        defaultBatchSize,
			VADMethod:        defaultVADMethod,
		},
		HuggingFace: HuggingFace{
			Validate: true,
		},
		Audio: Audio{
			SupportedFormats: defaultSupportedFormats(),
			SampleRate:       defaultSampleRate,
		},
		Output: Output{
			Transcript:   true,
			DetailedJSON: true,
			AnalysisCSV:  true,
		},
		Quality: Quality{
			MinSpeakerDuration:  defaultMinSpeakerDuration,
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Processing: Processing{
			Workers: defaultWorkers,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
