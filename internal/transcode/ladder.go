// Package transcode implements the adaptive-bitrate pipeline: quality ladder
// planning, stream selection, encode job construction, subtitle extraction
// and the orchestrator that drives the external encoder per rendition.
package transcode

import "math"

// Rung is one output quality level of the adaptive ladder.
type Rung struct {
	Width            int
	Height           int
	VideoBitrateKbps int
	AudioBitrateKbps int
}

// baseRung pairs a ladder target height with its bitrate budget.
type baseRung struct {
	height int
	vbr    int
	abr    int
}

// baseLadder is the fixed quality ladder, ascending.
var baseLadder = []baseRung{
	{height: 480, vbr: 1400, abr: 128},
	{height: 720, vbr: 2800, abr: 160},
	{height: 1080, vbr: 5000, abr: 192},
	{height: 1440, vbr: 8000, abr: 256},
	{height: 2160, vbr: 12000, abr: 320},
}

// RungCount maps a source height to the number of active ladder rungs.
// Monotonic in height, bounded to [1,5]; a source exactly at a threshold
// takes the deeper ladder.
func RungCount(sourceHeight int) int {
	switch {
	case sourceHeight >= 2160:
		return 5
	case sourceHeight >= 1440:
		return 4
	case sourceHeight >= 1080:
		return 3
	case sourceHeight >= 720:
		return 2
	default:
		return 1
	}
}

// PlanLadder derives the active rungs for a source resolution, ascending.
// Rung widths follow the source aspect ratio, bumped to even (4:2:0 chroma
// subsampling needs even dimensions). The top rung keeps the source's exact
// native width and height so the best rendition loses nothing to rounding.
func PlanLadder(sourceWidth, sourceHeight int) []Rung {
	aspectRatio := float64(sourceWidth) / float64(sourceHeight)
	count := RungCount(sourceHeight)

	rungs := make([]Rung, count)
	for i := 0; i < count; i++ {
		base := baseLadder[i]
		width := int(math.Round(float64(base.height) * aspectRatio))
		if width%2 != 0 {
			width++
		}
		rungs[i] = Rung{
			Width:            width,
			Height:           base.height,
			VideoBitrateKbps: base.vbr,
			AudioBitrateKbps: base.abr,
		}
	}

	rungs[count-1].Width = sourceWidth
	rungs[count-1].Height = sourceHeight
	return rungs
}

// Heights returns the rung heights in ladder order.
func Heights(rungs []Rung) []int {
	heights := make([]int, len(rungs))
	for i, r := range rungs {
		heights[i] = r.Height
	}
	return heights
}
