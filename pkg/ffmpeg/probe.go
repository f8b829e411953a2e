// Package ffmpeg wraps the ffprobe binary for media inspection.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// MediaInfo describes a probed media file.
type MediaInfo struct {
	Width    int
	Height   int
	Duration float64
}

// Probe inspects media files with ffprobe.
type Probe struct {
	path string
}

// NewProbe locates ffprobe on PATH. The returned Probe is usable even
// when the binary is missing; IsAvailable reports which case applies so
// callers can degrade instead of failing.
func NewProbe() *Probe {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return &Probe{}
	}
	return &Probe{path: path}
}

// IsAvailable reports whether ffprobe was found.
func (p *Probe) IsAvailable() bool {
	return p.path != ""
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Inspect returns the dimensions and duration of the media at path.
func (p *Probe) Inspect(ctx context.Context, path string) (*MediaInfo, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("ffprobe not available")
	}

	cmd := exec.CommandContext(ctx, p.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run ffprobe: %w", err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	for _, s := range parsed.Streams {
		if s.CodecType == "video" {
			info.Width = s.Width
			info.Height = s.Height
			break
		}
	}
	if parsed.Format.Duration != "" {
		if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	return info, nil
}
