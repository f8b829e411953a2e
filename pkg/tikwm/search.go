package tikwm

// SearchVideo is a thin accessor over a raw search result. The search
// endpoints return loosely schemed documents; only the fields every
// variant carries get typed accessors, the rest stays reachable through
// the underlying map.
type SearchVideo map[string]any

// ID returns the post's content ID, or "" when absent.
func (v SearchVideo) ID() string {
	return v.str("video_id", "id")
}

// Title returns the post caption, or "" when absent.
func (v SearchVideo) Title() string {
	return v.str("title")
}

// PlayURL returns the direct playback URL, or "" when absent.
func (v SearchVideo) PlayURL() string {
	return v.str("play")
}

// AuthorID returns the author's unique handle, or "" when absent.
func (v SearchVideo) AuthorID() string {
	author, ok := v["author"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := author["unique_id"].(string)
	return id
}

func (v SearchVideo) str(keys ...string) string {
	for _, key := range keys {
		if s, ok := v[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// AsVideos wraps raw search results for typed access.
func AsVideos(results []map[string]any) []SearchVideo {
	videos := make([]SearchVideo, len(results))
	for i, r := range results {
		videos[i] = SearchVideo(r)
	}
	return videos
}
