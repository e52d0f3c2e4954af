package models

// UploadResult is the public location of a stored upload.
type UploadResult struct {
	URL string `json:"url"`
}
