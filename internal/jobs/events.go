package jobs

import "encoding/json"

// EventType discriminates frames delivered over the push channel.
type EventType string

const (
	EventStatusUpdate   EventType = "status_update"
	EventProgressUpdate EventType = "progress_update"
	EventBatchComplete  EventType = "batch_complete"
	EventBatchCancelled EventType = "batch_cancelled"
)

// Event is one parsed push-channel frame addressing a job.
type Event struct {
	Type       EventType `json:"type"`
	JobID      string    `json:"job_id,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	FileName   string    `json:"filename,omitempty"`
	Status     string    `json:"status,omitempty"`
	Progress   *int      `json:"progress,omitempty"`
	Language   string    `json:"language,omitempty"`
	Model      string    `json:"model,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// ParseEvent decodes a raw push-channel frame.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// addressesJob reports whether the event carries enough identity to be merged
// into the job table. Batch summary frames carry no per-job identity.
func (e Event) addressesJob() bool {
	return e.JobID != "" || e.FilePath != ""
}
