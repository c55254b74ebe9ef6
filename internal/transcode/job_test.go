package transcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/ffmpeg"
)

var testPresets = config.TranscodeConfig{
	CRFHigh:         18,
	CRFStandard:     24,
	ProfileHigh:     "high",
	ProfileStandard: "main",
}

func TestBuildArgs_TopRung(t *testing.T) {
	sel := &Selection{
		VideoOrdinal: 0,
		Audio:        []ffmpeg.ProbeStream{{CodecName: "aac"}},
		Subtitles:    []ffmpeg.ProbeStream{{CodecName: "subrip"}},
	}
	rung := Rung{Width: 1920, Height: 1080, VideoBitrateKbps: 5000, AudioBitrateKbps: 192}

	args := BuildArgs(rung, 2, 3, sel, testPresets)
	joined := strings.Join(args, " ")

	assert.Equal(t, []string{
		"-c:v", "h264",
		"-profile:v", "high",
		"-map", "0:v:0",
		"-vf", "scale=1920:1080",
		"-pix_fmt", "yuv420p",
		"-crf", "18",
		"-maxrate", "5000k",
		"-bufsize", "5000k",
		"-map", "0:a",
		"-c:a", "aac",
		"-ac", "2",
		"-b:a", "192k",
		"-map", "0:s",
		"-c:s", "mov_text",
	}, args)
	assert.NotContains(t, joined, "-sn")
}

func TestBuildArgs_IntermediateRung(t *testing.T) {
	sel := &Selection{VideoOrdinal: 1, Audio: []ffmpeg.ProbeStream{{CodecName: "mp3"}}}
	rung := Rung{Width: 854, Height: 480, VideoBitrateKbps: 1400, AudioBitrateKbps: 128}

	args := BuildArgs(rung, 0, 3, sel, testPresets)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-profile:v main")
	assert.Contains(t, joined, "-crf 24")
	assert.Contains(t, joined, "-map 0:v:1")
	assert.Contains(t, joined, "scale=854:480")
	assert.Contains(t, joined, "-b:a 128k")
	// No subtitle streams: output subtitles are explicitly disabled
	assert.Contains(t, joined, "-sn")
	assert.NotContains(t, joined, "mov_text")
}

func TestBuildArgs_NoAudio(t *testing.T) {
	sel := &Selection{VideoOrdinal: 0}
	rung := Rung{Width: 1280, Height: 720, VideoBitrateKbps: 2800, AudioBitrateKbps: 160}

	args := BuildArgs(rung, 1, 2, sel, testPresets)
	joined := strings.Join(args, " ")

	// Audio is omitted entirely, not silenced with flags
	assert.NotContains(t, joined, "-c:a")
	assert.NotContains(t, joined, "-b:a")
	assert.NotContains(t, joined, "-map 0:a")
}

func TestBuildArgs_SingleRungIsTop(t *testing.T) {
	sel := &Selection{VideoOrdinal: 0}
	rung := Rung{Width: 640, Height: 360, VideoBitrateKbps: 1400, AudioBitrateKbps: 128}

	args := BuildArgs(rung, 0, 1, sel, testPresets)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-profile:v high")
	assert.Contains(t, joined, "-crf 18")
}
