package domain

// ContentKind identifies what a post's downloadable payload is.
type ContentKind string

const (
	ContentKindVideo  ContentKind = "video"
	ContentKindImages ContentKind = "images"
	ContentKindAudio  ContentKind = "audio"
)

// Author is the post author as returned by the aggregation API.
type Author struct {
	UniqueID string `json:"unique_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// MusicInfo is the sound/track record embedded in a post.
type MusicInfo struct {
	Title  string `json:"title"`
	Play   string `json:"play"`
	Author string `json:"author"`
}

// Post is the decoded content-lookup record for a single post.
// All fields are optional; which ones are populated decides the
// download strategy (see Kind).
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Play       string    `json:"play"`
	HDPlay     string    `json:"hdplay"`
	Cover      string    `json:"cover"`
	Duration   float64   `json:"duration"`
	Size       int64     `json:"size"`
	HDSize     int64     `json:"hd_size"`
	CreateTime int64     `json:"create_time"`
	Images     []string  `json:"images"`
	Author     Author    `json:"author"`
	MusicInfo  MusicInfo `json:"music_info"`
}

// Kind reports the download strategy for the post. An image list wins
// over playable URLs when both are present.
func (p *Post) Kind() (ContentKind, bool) {
	switch {
	case len(p.Images) > 0:
		return ContentKindImages, true
	case p.HDPlay != "" || p.Play != "":
		return ContentKindVideo, true
	default:
		return "", false
	}
}

// HasImages reports whether the post is a photo set.
func (p *Post) HasImages() bool {
	return len(p.Images) > 0
}

// HasVideo reports whether the post has a playable video URL.
func (p *Post) HasVideo() bool {
	return p.HDPlay != "" || p.Play != ""
}

// PlayURL returns the video URL for the requested quality. Requesting HD
// when no HD encode exists falls back to the standard URL.
func (p *Post) PlayURL(hd bool) string {
	if hd && p.HDPlay != "" {
		return p.HDPlay
	}
	return p.Play
}

// SoundURL returns the play URL of the embedded track, if any.
func (p *Post) SoundURL() string {
	return p.MusicInfo.Play
}
