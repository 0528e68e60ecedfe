package analyzer

import (
	"regexp"
	"strings"
)

var (
	mdHeading     = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	mdBullet      = regexp.MustCompile(`(?m)^[ \t]*[*+][ \t]+`)
	mdAsterisks   = regexp.MustCompile(`\*+`)
	mdUnderscores = regexp.MustCompile(`__+([^_]+)__+`)
	mdBackticks   = regexp.MustCompile("`+")
	spaceRun      = regexp.MustCompile(`[ \t]{2,}`)
	blankRun      = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown reduces model output to plain text.
func StripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdBullet.ReplaceAllString(s, "- ")
	s = mdAsterisks.ReplaceAllString(s, "")
	s = mdUnderscores.ReplaceAllString(s, "$1")
	s = mdBackticks.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
