package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ClipStatus is the lifecycle status of a clip. Transitions only move forward
// along the pipeline: processing -> edited -> ready, then one of
// pending_approval -> approved -> published, approved -> published, or
// rejected.
type ClipStatus string

const (
	ClipStatusProcessing      ClipStatus = "processing"
	ClipStatusEdited          ClipStatus = "edited"
	ClipStatusReady           ClipStatus = "ready"
	ClipStatusPendingApproval ClipStatus = "pending_approval"
	ClipStatusApproved        ClipStatus = "approved"
	ClipStatusPublished       ClipStatus = "published"
	ClipStatusRejected        ClipStatus = "rejected"
)

var clipTransitions = map[ClipStatus][]ClipStatus{
	ClipStatusProcessing:      {ClipStatusEdited},
	ClipStatusEdited:          {ClipStatusReady},
	ClipStatusReady:           {ClipStatusPendingApproval, ClipStatusApproved, ClipStatusRejected},
	ClipStatusPendingApproval: {ClipStatusApproved, ClipStatusRejected},
	ClipStatusApproved:        {ClipStatusPublished},
}

// CanAdvanceTo reports whether moving from s to next is a legal forward
// transition.
func (s ClipStatus) CanAdvanceTo(next ClipStatus) bool {
	for _, t := range clipTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// TriggerKind identifies what caused a clip-generation request.
type TriggerKind string

const (
	TriggerCommand         TriggerKind = "command"
	TriggerActionDetection TriggerKind = "action_detection"
	TriggerAudioPeak       TriggerKind = "audio_peak"
	TriggerPeriodic        TriggerKind = "periodic"
	TriggerStreamStart     TriggerKind = "stream_start"
)

// JSONMap is a map stored as a jsonb column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported jsonb source type")
	}
	return json.Unmarshal(b, m)
}

// Clip is one generated short-form artifact with all of its per-variant file
// references. The viral score is set once at generation time and never
// recomputed.
type Clip struct {
	ID                 string      `gorm:"type:uuid;primaryKey" json:"id"`
	StreamerID         string      `gorm:"type:uuid;not null;index" json:"streamer_id"`
	StreamID           string      `gorm:"type:uuid;index" json:"stream_id"`
	Title              string      `gorm:"not null" json:"title"`
	Description        string      `gorm:"type:text" json:"description,omitempty"`
	Duration           int         `gorm:"not null" json:"duration"`
	FilePath           string      `json:"file_path,omitempty"`
	EditedFilePath     string      `json:"edited_file_path,omitempty"`
	HorizontalFilePath string      `json:"horizontal_file_path,omitempty"`
	VerticalFilePath   string      `json:"vertical_file_path,omitempty"`
	SquareFilePath     string      `json:"square_file_path,omitempty"`
	HookFilePath       string      `json:"hook_file_path,omitempty"`
	SubtitlesPath      string      `json:"subtitles_path,omitempty"`
	ThumbnailURL       string      `json:"thumbnail_url,omitempty"`
	ViralScore         int         `gorm:"default:0" json:"viral_score"`
	Status             ClipStatus  `gorm:"type:varchar(32);default:processing;index" json:"status"`
	Trigger            TriggerKind `gorm:"type:varchar(32)" json:"trigger"`
	Metadata           JSONMap     `gorm:"type:jsonb" json:"metadata"`
	Views              int         `gorm:"default:0" json:"views"`
	Likes              int         `gorm:"default:0" json:"likes"`
	Shares             int         `gorm:"default:0" json:"shares"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func (Clip) TableName() string { return "clips" }

// ClipAnalysis holds the content-analysis signals a clip was scored on.
type ClipAnalysis struct {
	SuggestedTitle string    `json:"suggested_title,omitempty"`
	Description    string    `json:"description,omitempty"`
	Actions        []string  `json:"actions,omitempty"`
	AudioPeaks     []float64 `json:"audio_peaks,omitempty"`
	HasHighAction  bool      `json:"has_high_action"`
	HasDialog      bool      `json:"has_dialog"`
	Sentiment      string    `json:"sentiment,omitempty"`
}

// Utterance is one time-aligned span of transcribed speech.
type Utterance struct {
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcription is the speech-to-text result for a clip's audio track.
type Transcription struct {
	Transcript string      `json:"transcript"`
	Utterances []Utterance `json:"utterances"`
}
