package domain

// JobStatus tracks each pipeline phase for a single subtitle job.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusExtracting   JobStatus = "extracting"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusComposing    JobStatus = "composing"
	JobStatusDone         JobStatus = "done"
	JobStatusFailed       JobStatus = "failed"
	JobStatusCancelled    JobStatus = "cancelled"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ModelsDir   string `json:"modelsDir" toml:"models_dir"`
	OutputDir   string `json:"outputDir" toml:"output_dir"`
	ModelTier   string `json:"modelTier" toml:"model_tier"`
	Language    string `json:"language" toml:"language"`
	FFmpegPath  string `json:"ffmpegPath" toml:"ffmpeg_path"`
	WhisperPath string `json:"whisperPath" toml:"whisper_path"`
	LogLevel    string `json:"logLevel" toml:"log_level"`
	LogFormat   string `json:"logFormat" toml:"log_format"`
}

// Job stores one subtitle-generation request and its lifecycle status.
type Job struct {
	ID        string    `json:"id"`
	VideoPath string    `json:"videoPath"`
	OutputDir string    `json:"outputDir"`
	ModelTier string    `json:"modelTier"`
	Language  string    `json:"language"`
	Status    JobStatus `json:"status"`
}
