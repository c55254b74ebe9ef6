package transcode

import (
	"github.com/vodarr/vodarr/internal/ffmpeg"
	"github.com/vodarr/vodarr/internal/models"
)

// videoCodecs is the allow-list of real video codecs. Excludes image codecs
// like mjpeg/png so embedded cover-art streams are never picked as the
// primary video.
var videoCodecs = map[string]bool{
	"h264":   true,
	"hevc":   true,
	"vp9":    true,
	"av1":    true,
	"mpeg4":  true,
	"theora": true,
}

// audioCodecs is the allow-list of MP4-container-compatible audio codecs.
var audioCodecs = map[string]bool{
	"aac":  true,
	"mp3":  true,
	"opus": true,
	"ac3":  true,
}

// Selection holds the streams chosen from a probed source.
type Selection struct {
	// Video is the primary video stream.
	Video ffmpeg.ProbeStream

	// VideoOrdinal is the position of the primary stream among the
	// source's video-type streams, usable as the N in a "0:v:N" map.
	VideoOrdinal int

	// Audio holds the container-compatible audio streams. Empty means the
	// output will be silent, which is a warning, not a failure.
	Audio []ffmpeg.ProbeStream

	// Subtitles holds all subtitle streams in probe order.
	Subtitles []ffmpeg.ProbeStream
}

// HasAudio reports whether any compatible audio stream was selected.
func (s *Selection) HasAudio() bool {
	return len(s.Audio) > 0
}

// HasSubtitles reports whether any subtitle stream was found.
func (s *Selection) HasSubtitles() bool {
	return len(s.Subtitles) > 0
}

// SelectStreams inspects a probe result and picks the primary video stream,
// the compatible audio streams and the subtitle streams. Returns
// models.ErrNoPrimaryVideoStream when no allow-listed video stream exists.
func SelectStreams(probe *ffmpeg.ProbeResult) (*Selection, error) {
	sel := &Selection{VideoOrdinal: -1}

	videoOrdinal := 0
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if sel.VideoOrdinal < 0 && videoCodecs[stream.CodecName] {
				sel.Video = stream
				sel.VideoOrdinal = videoOrdinal
			}
			videoOrdinal++
		case "audio":
			if audioCodecs[stream.CodecName] {
				sel.Audio = append(sel.Audio, stream)
			}
		case "subtitle":
			sel.Subtitles = append(sel.Subtitles, stream)
		}
	}

	if sel.VideoOrdinal < 0 {
		return nil, models.ErrNoPrimaryVideoStream
	}
	return sel, nil
}
