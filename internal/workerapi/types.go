package workerapi

// JobRecord mirrors one job entry in the worker's listing.
type JobRecord struct {
	ID         string `json:"id"`
	FilePath   string `json:"file_path"`
	FileName   string `json:"filename"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Language   string `json:"language"`
	Model      string `json:"model"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

// SubmitRequest enqueues transcription jobs for a set of media files.
type SubmitRequest struct {
	Files     []string `json:"files"`
	ClientID  string   `json:"client_id"`
	ModelSize string   `json:"model_size"`
	Language  string   `json:"language"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	Message string `json:"message"`
	JobIDs  []string `json:"job_ids,omitempty"`
}

// JobsResponse contains the worker's current job table.
type JobsResponse struct {
	Jobs []JobRecord `json:"jobs"`
}

// ControlAction names a job control operation.
type ControlAction string

const (
	ActionPause  ControlAction = "pause"
	ActionResume ControlAction = "resume"
	ActionStop   ControlAction = "stop"
	ActionDelete ControlAction = "delete"
)

// ControlRequest identifies a job and the action to apply.
type ControlRequest struct {
	JobID  string        `json:"job_id"`
	Action ControlAction `json:"action"`
}

// DownloadSubtitleRequest fetches a subtitle for one file in one language.
type DownloadSubtitleRequest struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
}

// DownloadSubtitleResponse reports a single-language download outcome.
type DownloadSubtitleResponse struct {
	Success      bool   `json:"success"`
	SubtitleText string `json:"subtitle_text,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SyncInfo describes the timing alignment of a found subtitle.
type SyncInfo struct {
	InSync    bool    `json:"in_sync"`
	AvgOffset float64 `json:"avg_offset"`
}

// MultilingualSearchRequest searches for a subtitle across several languages.
type MultilingualSearchRequest struct {
	MediaPath     string   `json:"media_path"`
	Languages     []string `json:"languages"`
	MinSimilarity float64  `json:"min_similarity,omitempty"`
}

// MultilingualSearchResponse reports the first successful language, if any.
type MultilingualSearchResponse struct {
	Success      bool      `json:"success"`
	Language     string    `json:"language,omitempty"`
	SubtitleText string    `json:"subtitle_text,omitempty"`
	Similarity   float64   `json:"similarity,omitempty"`
	SyncInfo     *SyncInfo `json:"sync_info,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// DirectoryEntry is one browsable directory with media counts.
type DirectoryEntry struct {
	Name       string `json:"name"`
	VideoCount int    `json:"video_count"`
	AudioCount int    `json:"audio_count"`
}

// ListDirectoriesResponse contains the directories under a path.
type ListDirectoriesResponse struct {
	Directories []DirectoryEntry `json:"directories"`
	ParentPath  string           `json:"parent_path,omitempty"`
}

// FileEntry is one scanned media file.
type FileEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Language    string `json:"language,omitempty"`
	HasSubtitle bool   `json:"has_subtitle"`
	HasEmbedded bool   `json:"has_embedded"`
}

// ScanFilesResponse contains the media files under a path.
type ScanFilesResponse struct {
	Files []FileEntry `json:"files"`
}

// errorDetail is the worker's error envelope for non-2xx responses.
type errorDetail struct {
	Detail string `json:"detail"`
}
