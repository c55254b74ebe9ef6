package transcode

import (
	"fmt"

	"github.com/vodarr/vodarr/internal/config"
)

// BuildArgs composes the ffmpeg output parameter list for one rung. The last
// (highest) active rung gets the high-fidelity profile and CRF; intermediate
// rungs use the standard preset to keep their files small. Pure function of
// its inputs.
func BuildArgs(rung Rung, index, total int, sel *Selection, presets config.TranscodeConfig) []string {
	isTop := index == total-1

	profile := presets.ProfileStandard
	crf := presets.CRFStandard
	if isTop {
		profile = presets.ProfileHigh
		crf = presets.CRFHigh
	}

	args := []string{
		"-c:v", "h264",
		"-profile:v", profile,
		"-map", fmt.Sprintf("0:v:%d", sel.VideoOrdinal),
		"-vf", fmt.Sprintf("scale=%d:%d", rung.Width, rung.Height),
		"-pix_fmt", "yuv420p",
		"-crf", fmt.Sprintf("%d", crf),
		"-maxrate", fmt.Sprintf("%dk", rung.VideoBitrateKbps),
		"-bufsize", fmt.Sprintf("%dk", rung.VideoBitrateKbps),
	}

	if sel.HasAudio() {
		args = append(args,
			"-map", "0:a",
			"-c:a", "aac",
			"-ac", "2",
			"-b:a", fmt.Sprintf("%dk", rung.AudioBitrateKbps),
		)
	}

	if sel.HasSubtitles() {
		args = append(args,
			"-map", "0:s",
			"-c:s", "mov_text",
		)
	} else {
		args = append(args, "-sn")
	}

	return args
}
