package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3").
	Model string
	// Device is "auto", "cpu" or "cuda".
	Device string
	// ComputeType overrides the CTranslate2 precision. Empty picks one per device.
	ComputeType string
	BatchSize   int
	// Language is an ISO 639-1 code, or "auto"/"" for engine detection.
	Language string
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// WorkDir receives a scratch output directory per transcription.
	WorkDir string
}

// WhisperX configuration constants.
const (
	DefaultModel        = "large-v3"
	DefaultBatchSize    = 16
	CUDAIndexURL        = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL        = "https://pypi.org/simple"
	OutputFormat        = "json"
	CPUDevice           = "cpu"
	CUDADevice          = "cuda"
	CPUComputeType      = "float32"
	CUDAComputeType     = "float16"
	DefaultComputeType  = "default"
	VADMethodPyannote   = "pyannote"
	VADMethodSilero     = "silero"
	weightsOnlyEnvVar   = "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD"
	scratchDirPattern   = "whisperx-*"
	defaultUVXCommand   = "uvx"
	autoLanguageSetting = "auto"
)
