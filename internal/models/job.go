package models

// ThumbnailJob asks the worker to derive thumbnails for an uploaded image.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}

// WelcomeJob asks the worker to greet a newly registered user.
type WelcomeJob struct {
	UserID string `json:"userId"`
}
