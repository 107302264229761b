package models

// VideoLink is the request body of both pipeline endpoints. URL is nil when
// the field is absent or null.
type VideoLink struct {
	URL *string `json:"url"`
}

type BlogResponse struct {
	BlogContent string `json:"blog_content"`
}

type TranscriptionResponse struct {
	Transcription string `json:"transcription"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
