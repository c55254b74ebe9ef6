package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodarr/vodarr/internal/ffmpeg"
	"github.com/vodarr/vodarr/internal/models"
)

func videoStream(index int, codec string, w, h int) ffmpeg.ProbeStream {
	return ffmpeg.ProbeStream{Index: index, CodecType: "video", CodecName: codec, Width: w, Height: h}
}

func audioStream(index int, codec string) ffmpeg.ProbeStream {
	return ffmpeg.ProbeStream{Index: index, CodecType: "audio", CodecName: codec}
}

func subtitleStream(index int, lang string, forced bool) ffmpeg.ProbeStream {
	s := ffmpeg.ProbeStream{
		Index:     index,
		CodecType: "subtitle",
		CodecName: "subrip",
		Tags:      map[string]string{"language": lang},
	}
	if forced {
		s.Disposition.Forced = 1
	}
	return s
}

func TestSelectStreams(t *testing.T) {
	probe := &ffmpeg.ProbeResult{
		Streams: []ffmpeg.ProbeStream{
			videoStream(0, "h264", 1920, 1080),
			audioStream(1, "aac"),
			audioStream(2, "dts"), // incompatible, filtered
			audioStream(3, "ac3"),
			subtitleStream(4, "en", false),
			subtitleStream(5, "es", true),
		},
	}

	sel, err := SelectStreams(probe)
	require.NoError(t, err)

	assert.Equal(t, "h264", sel.Video.CodecName)
	assert.Equal(t, 0, sel.VideoOrdinal)

	require.Len(t, sel.Audio, 2)
	assert.Equal(t, "aac", sel.Audio[0].CodecName)
	assert.Equal(t, "ac3", sel.Audio[1].CodecName)

	require.Len(t, sel.Subtitles, 2)
	assert.True(t, sel.HasAudio())
	assert.True(t, sel.HasSubtitles())
}

func TestSelectStreams_SkipsThumbnailStream(t *testing.T) {
	// mjpeg cover art precedes the real video stream
	probe := &ffmpeg.ProbeResult{
		Streams: []ffmpeg.ProbeStream{
			videoStream(0, "mjpeg", 600, 882),
			videoStream(1, "hevc", 3840, 2160),
		},
	}

	sel, err := SelectStreams(probe)
	require.NoError(t, err)

	assert.Equal(t, "hevc", sel.Video.CodecName)
	assert.Equal(t, 1, sel.VideoOrdinal, "ordinal counts video-type streams, mjpeg included")
	assert.Equal(t, 3840, sel.Video.Width)
}

func TestSelectStreams_NoPrimaryVideo(t *testing.T) {
	probe := &ffmpeg.ProbeResult{
		Streams: []ffmpeg.ProbeStream{
			videoStream(0, "mjpeg", 600, 882),
			audioStream(1, "aac"),
		},
	}

	_, err := SelectStreams(probe)
	assert.ErrorIs(t, err, models.ErrNoPrimaryVideoStream)
}

func TestSelectStreams_NoAudioIsNotAnError(t *testing.T) {
	probe := &ffmpeg.ProbeResult{
		Streams: []ffmpeg.ProbeStream{
			videoStream(0, "h264", 1280, 720),
		},
	}

	sel, err := SelectStreams(probe)
	require.NoError(t, err)
	assert.False(t, sel.HasAudio())
	assert.False(t, sel.HasSubtitles())
}
