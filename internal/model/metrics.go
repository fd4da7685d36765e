package model

import (
	"slices"
	"time"
)

// Action names a tracked user interaction.
type Action string

const (
	ActionLogin       Action = "login"
	ActionGenerate    Action = "generate"
	ActionInfographic Action = "infographic"
	ActionExportPDF   Action = "export_pdf"
	ActionInsertImage Action = "insert_image"
	ActionRegenerate  Action = "regenerate"
	ActionClear       Action = "clear"
)

// TrackableActions are the actions clients may report through /track_action.
// Login is bumped by the auth flow only.
var TrackableActions = []Action{
	ActionGenerate,
	ActionInfographic,
	ActionExportPDF,
	ActionInsertImage,
	ActionRegenerate,
	ActionClear,
}

// IsTrackable reports whether a client may record a.
func (a Action) IsTrackable() bool {
	return slices.Contains(TrackableActions, a)
}

// UserMetrics holds one counter per action for a single user.
// The row is created by the first recorded action.
type UserMetrics struct {
	UserID           string    `json:"userId"           db:"user_id"`
	LoginCount       int       `json:"loginCount"       db:"login_count"`
	GenerateCount    int       `json:"generateCount"    db:"generate_count"`
	InfographicCount int       `json:"infographicCount" db:"infographic_count"`
	ExportPDFCount   int       `json:"exportPdfCount"   db:"export_pdf_count"`
	InsertImageCount int       `json:"insertImageCount" db:"insert_image_count"`
	RegenerateCount  int       `json:"regenerateCount"  db:"regenerate_count"`
	ClearCount       int       `json:"clearCount"       db:"clear_count"`
	LastUpdated      time.Time `json:"lastUpdated"      db:"last_updated"`
}
