package dto

import "time"

// ExportResponse describes a rendered timetable export and how to fetch it.
type ExportResponse struct {
	File      string    `json:"file"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
