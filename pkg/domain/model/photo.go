package model

import "time"

// PhotoUpload is a signed URL the client uploads a photo to, and the URL the
// photo is served from once uploaded.
type PhotoUpload struct {
	UploadURL   string    `json:"upload_url"`
	PublicURL   string    `json:"public_url"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
