package models

import "encoding/json"

// Classification is the visual category assigned to a frame
type Classification string

const (
	Diagram     Classification = "diagram"
	Code        Classification = "code"
	Slide       Classification = "slide"
	Chart       Classification = "chart"
	TalkingHead Classification = "talking_head"
	Other       Classification = "other"
	Unknown     Classification = "unknown"
)

// FrameTypes lists the categories a vision model may answer with, in match order.
var FrameTypes = []Classification{Diagram, Code, Slide, Chart, TalkingHead, Other}

// Chapter is an author-defined segment of a video
type Chapter struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
}

// VideoInfo is the best-effort metadata for a video
type VideoInfo struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Channel  string    `json:"channel"`
	Duration float64   `json:"duration"`
	Chapters []Chapter `json:"chapters"`
}

// Candidate represents a sampled frame that has not been classified yet
type Candidate struct {
	Path               string
	Timestamp          float64
	SyntheticTimestamp bool
	Fingerprint        string
	FingerprintFailed  bool
}

// Verdict is the outcome of classifying a single image
type Verdict struct {
	Classification Classification
	Confidence     float64
	Text           string
	Degraded       bool
}

// ClassifiedFrame is a candidate paired with its verdict
type ClassifiedFrame struct {
	Candidate
	Verdict
}

// ExtractedFrame is a persisted frame as it appears in metadata.json
type ExtractedFrame struct {
	Filename           string         `json:"filename"`
	Timestamp          float64        `json:"timestamp"`
	TimestampFormatted string         `json:"timestamp_formatted"`
	Classification     Classification `json:"classification"`
	Confidence         float64        `json:"confidence"`
	OCRText            string         `json:"ocr_text"`
	PHash              string         `json:"phash"`
	Degraded           bool           `json:"degraded,omitempty"`
	SyntheticTimestamp bool           `json:"synthetic_timestamp,omitempty"`
	FingerprintFailed  bool           `json:"fingerprint_failed,omitempty"`
}

// Stats counts the frames surviving each stage of an extraction
type Stats struct {
	InitialFrames int `json:"initial_frames"`
	AfterDedup    int `json:"after_dedup"`
	FinalFrames   int `json:"final_frames"`
}

// ExtractionResult is the outcome of one pipeline run
type ExtractionResult struct {
	Success   bool
	VideoID   string
	Title     string
	OutputDir string
	Strategy  string
	Frames    []ExtractedFrame
	Stats     Stats
	Error     string
}

// MarshalJSON emits frames and stats only on success, and error only on failure.
func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			VideoID string `json:"video_id,omitempty"`
			Title   string `json:"title,omitempty"`
			Error   string `json:"error"`
		}{r.Success, r.VideoID, r.Title, r.Error})
	}

	frames := r.Frames
	if frames == nil {
		frames = []ExtractedFrame{}
	}
	return json.Marshal(struct {
		Success   bool             `json:"success"`
		VideoID   string           `json:"video_id"`
		Title     string           `json:"title"`
		OutputDir string           `json:"output_dir"`
		Strategy  string           `json:"strategy"`
		Frames    []ExtractedFrame `json:"frames"`
		Stats     Stats            `json:"stats"`
	}{r.Success, r.VideoID, r.Title, r.OutputDir, r.Strategy, frames, r.Stats})
}

// Metadata is the document written to metadata.json
type Metadata struct {
	VideoID     string           `json:"video_id"`
	Title       string           `json:"title"`
	ExtractedAt string           `json:"extracted_at"`
	Strategy    string           `json:"strategy"`
	Classifier  string           `json:"classifier"`
	Stats       Stats            `json:"stats"`
	Frames      []ExtractedFrame `json:"frames"`
}
