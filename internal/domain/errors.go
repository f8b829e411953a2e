package domain

import "errors"

// Domain errors.
var (
	// ErrNoURL is returned when no http(s) URL can be found in the input text.
	ErrNoURL = errors.New("no URL found in input")

	// ErrResolution is returned when a share-link cannot be resolved to its
	// canonical form.
	ErrResolution = errors.New("share link resolution failed")

	// ErrIDNotFound is returned when a link has no extractable content ID.
	ErrIDNotFound = errors.New("content ID not found in link")

	// ErrFetch is returned when a metadata fetch fails after retry exhaustion.
	ErrFetch = errors.New("metadata fetch failed")

	// ErrInvalidSearchMethod is returned when search is invoked with an
	// unrecognized method.
	ErrInvalidSearchMethod = errors.New("invalid search method")

	// ErrNoDownloadableContent is returned when a post has neither an image
	// list nor a playable URL.
	ErrNoDownloadableContent = errors.New("no downloadable content in post")

	// ErrNoSound is returned when a post has no embedded track URL.
	ErrNoSound = errors.New("post has no sound track")

	// ErrPartialDownload is returned when some assets of a photo set failed
	// to transfer. The accompanying result still lists what succeeded.
	ErrPartialDownload = errors.New("some assets failed to download")

	// ErrSessionClosed is returned when an operation is attempted after the
	// session was closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrDiskSpace is returned when the destination filesystem has less free
	// space than the transfer requires.
	ErrDiskSpace = errors.New("insufficient disk space")

	// ErrJobNotFound is returned when a download job cannot be found.
	ErrJobNotFound = errors.New("job not found")
)

// PostError wraps an error with post context.
type PostError struct {
	PostID string
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	if e.PostID != "" {
		return e.Op + " [" + e.PostID + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// NewPostError creates a new PostError.
func NewPostError(postID, op string, err error) *PostError {
	return &PostError{
		PostID: postID,
		Op:     op,
		Err:    err,
	}
}
