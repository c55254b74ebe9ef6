package transcode

import "fmt"

// subtitleNamer assigns caption file base names from language tags and the
// forced disposition. Forced and normal tracks count independently per
// language; the first occurrence gets the bare name, later collisions get a
// numeric suffix starting at 2.
type subtitleNamer struct {
	normal map[string]int
	forced map[string]int
}

func newSubtitleNamer() *subtitleNamer {
	return &subtitleNamer{
		normal: make(map[string]int),
		forced: make(map[string]int),
	}
}

// next returns the base name (no extension) for the next track with the given
// language and forced flag: "en", "forced-en", "en_2", "forced-en_3", ...
func (n *subtitleNamer) next(language string, forced bool) string {
	counts := n.normal
	name := language
	if forced {
		counts = n.forced
		name = "forced-" + language
	}

	counts[language]++
	if counts[language] > 1 {
		return fmt.Sprintf("%s_%d", name, counts[language])
	}
	return name
}
