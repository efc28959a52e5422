package booking

import (
	"regexp"
	"strings"

	"labcal/internal/model"
)

var rosterSep = regexp.MustCompile(`[,\n;]+`)

// ParseRoster splits free-form roster input ("20400798, 20400799; ...") into
// members. Blank tokens are dropped; format is checked later by ValidateDraft.
func ParseRoster(text string) []model.Member {
	var out []model.Member
	for _, tok := range rosterSep.Split(text, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, model.Member{ControlNumber: tok})
	}
	return out
}
