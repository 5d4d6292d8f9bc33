package tsd

import "regexp"

// Either separator is accepted; paths are reported as printed.
var itemPattern = regexp.MustCompile(`(?i)- ([^\n]+[/\\][^\n]+\.d\.ts)`)

// ParseChunk extracts the definition paths tsd reports as "- dir/file.d.ts",
// in order of appearance. Anything else in the chunk is ignored.
func ParseChunk(chunk string) []string {
	matches := itemPattern.FindAllStringSubmatch(chunk, -1)
	if len(matches) == 0 {
		return nil
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m[1])
	}

	return paths
}
