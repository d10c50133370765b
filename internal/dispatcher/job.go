package dispatcher

import "encoding/json"

// Job sources.
const (
	SourceLocal  = "local"
	SourceURL    = "url"
	SourceS3     = "s3"
	SourceUpload = "upload"
)

// Job is the payload carried on the queue for one extraction run.
type Job struct {
	JobID   string `json:"job_id"`
	Source  string `json:"source"`
	Ref     string `json:"ref"` // local path, URL or s3://bucket/key
	Attempt int    `json:"attempt"`

	// Per-job overrides, zero values fall back to config.
	LineYTolerance  float64 `json:"line_y_tolerance,omitempty"`
	BlockXTolerance float64 `json:"block_x_tolerance,omitempty"`
	BlockYTolerance float64 `json:"block_y_tolerance,omitempty"`
	WriteOverlays   *bool   `json:"write_overlays,omitempty"`
}

// Encode serializes the job for the queue.
func (j Job) Encode() ([]byte, error) { return json.Marshal(j) }

// DecodeJob parses a queue payload.
func DecodeJob(data []byte) (Job, error) {
	var j Job
	err := json.Unmarshal(data, &j)
	return j, err
}
