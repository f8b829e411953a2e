package domain

// Dimensions holds probe-derived video geometry. Zero values mean the
// probe was unavailable or failed; a download never fails because of it.
type Dimensions struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	// Duration in seconds, sourced from the post metadata.
	Duration float64 `json:"duration,omitempty"`
}

// DownloadResult is the immutable outcome of a download call.
//
// For photo sets, Media keeps the input order: Media[i] is the local path
// of the i-th source URL, or "" when that transfer failed, and Failed
// lists the failed indices. For videos Media holds a single path.
type DownloadResult struct {
	Dir    string      `json:"dir"`
	Media  []string    `json:"media"`
	Failed []int       `json:"failed,omitempty"`
	Type   ContentKind `json:"type"`
	Dimensions
}

// Complete reports whether every asset transferred.
func (r *DownloadResult) Complete() bool {
	return len(r.Failed) == 0
}
