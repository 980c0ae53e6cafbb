package entity

import "time"

// FileAttachment is opaque file metadata attached to a report at creation.
// The engine passes attachments through untouched.
type FileAttachment struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"report_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size,omitempty"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
