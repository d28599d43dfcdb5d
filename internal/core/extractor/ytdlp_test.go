package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeFixture(t *testing.T, raw string) *probeJSON {
	t.Helper()
	var info probeJSON
	require.NoError(t, json.Unmarshal([]byte(raw), &info))
	return &info
}

func TestBuildFormats(t *testing.T) {
	info := probeFixture(t, `{
		"title": "clip",
		"formats": [
			{"format_id": "22", "ext": "mp4", "height": 720, "vcodec": "avc1", "acodec": "mp4a"},
			{"format_id": "18", "ext": "mp4", "height": 360, "vcodec": "avc1", "acodec": "mp4a"},
			{"format_id": "96", "ext": "mp4", "height": 720, "vcodec": "vp9", "acodec": "opus"},
			{"format_id": "37", "ext": "mp4", "height": 1080, "vcodec": "avc1", "acodec": "mp4a"}
		]
	}`)

	formats := buildFormats(info)
	require.Len(t, formats, 4)

	assert.Equal(t, Format{ID: "bestaudio", Ext: "mp3", Resolution: "Audio Only", Note: "MP3"}, formats[0])
	assert.Equal(t, "360p", formats[1].Resolution)
	assert.Equal(t, "720p", formats[2].Resolution)
	assert.Equal(t, "22", formats[2].ID, "first stream seen at a height wins")
	assert.Equal(t, "1080p", formats[3].Resolution)

	for _, f := range formats[1:] {
		assert.Equal(t, "mp4", f.Ext)
		assert.Equal(t, "MP4 (video+audio)", f.Note)
	}
}

func TestBuildFormatsSkipsHeightlessStreams(t *testing.T) {
	info := probeFixture(t, `{
		"formats": [
			{"format_id": "sb0", "ext": "mp4", "vcodec": "avc1", "acodec": "mp4a"},
			{"format_id": "18", "ext": "mp4", "height": 360, "vcodec": "avc1", "acodec": "mp4a"}
		]
	}`)

	formats := buildFormats(info)
	require.Len(t, formats, 2)
	assert.Equal(t, "18", formats[1].ID)
}

func TestBuildFormatsFiltersNonMuxedAndNonMP4(t *testing.T) {
	info := probeFixture(t, `{
		"formats": [
			{"format_id": "140", "ext": "m4a", "height": 0, "vcodec": "none", "acodec": "mp4a"},
			{"format_id": "248", "ext": "webm", "height": 1080, "vcodec": "vp9", "acodec": "none"},
			{"format_id": "244", "ext": "webm", "height": 480, "vcodec": "vp9", "acodec": "opus"}
		]
	}`)

	formats := buildFormats(info)
	require.Len(t, formats, 1, "only the audio sentinel remains")
	assert.Equal(t, AudioFormatID, formats[0].ID)
}

func TestBuildFormatsEmptyProbe(t *testing.T) {
	formats := buildFormats(probeFixture(t, `{}`))
	require.Len(t, formats, 1)
	assert.Equal(t, "Audio Only", formats[0].Resolution)
}

func TestMetadataDefaults(t *testing.T) {
	meta := metadataFrom(probeFixture(t, `{}`))
	assert.Equal(t, "Unknown Title", meta.Title)
	assert.Equal(t, "Unknown", meta.Uploader)
	assert.Equal(t, 0, meta.Duration)

	meta = metadataFrom(probeFixture(t, `{"title":"clip","uploader":"alice","duration":12.9,"thumbnail":"https://i.example/t.jpg"}`))
	assert.Equal(t, "clip", meta.Title)
	assert.Equal(t, "alice", meta.Uploader)
	assert.Equal(t, 12, meta.Duration)
	assert.Equal(t, "https://i.example/t.jpg", meta.Thumbnail)
}

func TestFetchArgsAudio(t *testing.T) {
	args := fetchArgs("https://example.com/v", AudioFormatID, "/tmp/out.mp3")

	assert.Equal(t, []string{
		"-o", "/tmp/out.mp3",
		"-f", "bestaudio",
		"-x", "--audio-format", "mp3",
		"--audio-quality", "192K",
		"https://example.com/v",
	}, args)
}

func TestFetchArgsVideo(t *testing.T) {
	args := fetchArgs("https://example.com/v", "22", "/tmp/out.mp4")

	assert.Equal(t, []string{
		"-o", "/tmp/out.mp4",
		"-f", "22",
		"--merge-output-format", "mp4",
		"--postprocessor-args", "-c:v copy -c:a aac",
		"https://example.com/v",
	}, args)
}

func TestExt(t *testing.T) {
	assert.Equal(t, "mp3", Ext(AudioFormatID))
	assert.Equal(t, "mp4", Ext("22"))
	assert.Equal(t, "mp4", Ext("137+140"))
}

func TestToolError(t *testing.T) {
	err := toolError(assert.AnError, []byte("WARNING: something\nERROR: unsupported URL"))
	assert.Equal(t, "ERROR: unsupported URL", err.Error())

	err = toolError(assert.AnError, nil)
	assert.Equal(t, assert.AnError.Error(), err.Error())
}
