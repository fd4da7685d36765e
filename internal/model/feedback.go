package model

import "time"

// UserFeedback is one star-rating submission. The log is append-only and a
// user may submit any number of rows.
type UserFeedback struct {
	ID                    string    `json:"id"                    db:"id"`
	UserID                string    `json:"userId"                db:"user_id"`
	StarRating            int       `json:"starRating"            db:"star_rating"`
	ImprovementSuggestion string    `json:"improvementSuggestion" db:"improvement_suggestion"`
	WouldRecommend        bool      `json:"wouldRecommend"        db:"would_recommend"`
	SubmittedAt           time.Time `json:"submittedAt"           db:"submitted_at"`
}
