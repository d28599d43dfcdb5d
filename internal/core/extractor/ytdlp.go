// Package extractor wraps the yt-dlp binary: metadata probing, format
// enumeration and download/transcode to a local path.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// AudioFormatID is the synthesized audio-only pseudo-format. Selecting it
// downloads the best audio stream and transcodes to mp3.
const AudioFormatID = "bestaudio"

// ExtractionError carries the underlying tool's failure message.
type ExtractionError struct {
	Msg string
}

func (e *ExtractionError) Error() string {
	return e.Msg
}

// Metadata is the no-download probe result for a URL.
type Metadata struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Uploader  string `json:"uploader"`
	Duration  int    `json:"duration"`
}

// Format is a selectable download option offered for a URL.
type Format struct {
	ID         string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	Note       string `json:"note"`
}

// Ext returns the file extension produced by downloading formatID.
func Ext(formatID string) string {
	if formatID == AudioFormatID {
		return "mp3"
	}
	return "mp4"
}

// Client runs yt-dlp as a subprocess.
type Client struct {
	bin string
}

// New creates a client using the given yt-dlp binary (a bare name is
// resolved via PATH).
func New(bin string) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{bin: bin}
}

// probeJSON mirrors the subset of yt-dlp -J output we consume.
type probeJSON struct {
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Uploader  string  `json:"uploader"`
	Duration  float64 `json:"duration"`
	Formats   []struct {
		FormatID string `json:"format_id"`
		Ext      string `json:"ext"`
		Height   int    `json:"height"`
		VCodec   string `json:"vcodec"`
		ACodec   string `json:"acodec"`
	} `json:"formats"`
}

// Probe fetches metadata for url without downloading anything.
func (c *Client) Probe(ctx context.Context, url string) (*Metadata, error) {
	info, err := c.probe(ctx, url)
	if err != nil {
		return nil, err
	}
	return metadataFrom(info), nil
}

// Formats enumerates the selectable formats for url: an audio-only entry
// first, then combined video+audio mp4 streams deduplicated by height in
// ascending order.
func (c *Client) Formats(ctx context.Context, url string) ([]Format, error) {
	info, err := c.probe(ctx, url)
	if err != nil {
		return nil, err
	}
	return buildFormats(info), nil
}

// Fetch downloads url in the chosen format to dest. The audio sentinel
// transcodes to mp3 at 192k; any other format id is remuxed into mp4 with
// the video stream copied and audio re-encoded to AAC. Blocking for the
// full network + transcode duration.
func (c *Client) Fetch(ctx context.Context, url, formatID, dest string) error {
	args := fetchArgs(url, formatID, dest)
	cmd := exec.CommandContext(ctx, c.bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return toolError(err, stderr.Bytes())
	}
	return nil
}

func (c *Client) probe(ctx context.Context, url string) (*probeJSON, error) {
	cmd := exec.CommandContext(ctx, c.bin, "-J", "--no-playlist", url)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, toolError(err, stderr.Bytes())
	}

	var info probeJSON
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, &ExtractionError{Msg: fmt.Sprintf("unreadable yt-dlp output: %v", err)}
	}
	return &info, nil
}

func metadataFrom(info *probeJSON) *Metadata {
	m := &Metadata{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Uploader:  info.Uploader,
		Duration:  int(info.Duration),
	}
	if m.Title == "" {
		m.Title = "Unknown Title"
	}
	if m.Uploader == "" {
		m.Uploader = "Unknown"
	}
	return m
}

// buildFormats synthesizes the selectable format list from a probe.
// Streams missing a height are skipped; the first stream seen at a given
// height wins even if later ones differ in codec or bitrate.
func buildFormats(info *probeJSON) []Format {
	formats := []Format{{
		ID:         AudioFormatID,
		Ext:        "mp3",
		Resolution: "Audio Only",
		Note:       "MP3",
	}}

	seen := make(map[int]bool)
	var video []Format
	heights := make(map[string]int)

	for _, f := range info.Formats {
		if f.VCodec == "none" || f.VCodec == "" || f.ACodec == "none" || f.ACodec == "" {
			continue
		}
		if f.Ext != "mp4" {
			continue
		}
		if f.Height == 0 || seen[f.Height] {
			continue
		}
		seen[f.Height] = true

		vf := Format{
			ID:         f.FormatID,
			Ext:        "mp4",
			Resolution: fmt.Sprintf("%dp", f.Height),
			Note:       "MP4 (video+audio)",
		}
		heights[vf.ID] = f.Height
		video = append(video, vf)
	}

	sort.Slice(video, func(i, j int) bool {
		return heights[video[i].ID] < heights[video[j].ID]
	})

	return append(formats, video...)
}

// fetchArgs builds the yt-dlp invocation for a download.
func fetchArgs(url, formatID, dest string) []string {
	args := []string{"-o", dest}
	if formatID == AudioFormatID {
		args = append(args,
			"-f", "bestaudio",
			"-x", "--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	} else {
		args = append(args,
			"-f", formatID,
			"--merge-output-format", "mp4",
			"--postprocessor-args", "-c:v copy -c:a aac",
		)
	}
	return append(args, url)
}

// toolError turns a subprocess failure into an ExtractionError, preferring
// yt-dlp's own stderr message over the exec error.
func toolError(err error, stderr []byte) *ExtractionError {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	} else if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
		// yt-dlp prints warnings first; the final line carries the error.
		msg = strings.TrimSpace(msg[i+1:])
	}
	return &ExtractionError{Msg: msg}
}
