package score

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
)

type tagRule struct {
	label string
	re    *regexp.Regexp
}

// tagRules are the fixed right-of-way topic buckets, in display order.
var tagRules = []tagRule{
	{"Restoration", regexp.MustCompile(`restore|restoration|patch|patching|repair|replac|sawcut|backfill|compaction`)},
	{"Traffic Control", regexp.MustCompile(`traffic control|tcmp|mutcd|barricade|cone|detour|flagger|lane closure`)},
	{"Permitting", regexp.MustCompile(`permit|right-of-way|\brow\b|license|authorization`)},
	{"Utilities — Telecom/Fiber", regexp.MustCompile(
		`telecommunication|telecommunications|\btelecom\b|communications|fiber optic|conduit|duct|handhole|pull box|vault|splice`)},
	{"Utilities — Electric", regexp.MustCompile(`\belectric\b|electrical|power|transformer|pedestal`)},
	{"Utilities — Gas", regexp.MustCompile(`\bgas\b|gas main|gas service|meter|regulator`)},
	{"Utilities — Water", regexp.MustCompile(`\bwater\b|water main|hydrant|valve|service line|backflow`)},
	{"Utilities — Sewer", regexp.MustCompile(`\bsewer\b|sanitary|manhole|lateral`)},
	{"Utilities — Storm", regexp.MustCompile(`stormwater|\bstorm\b|inlet|catch basin|culvert|drain|outfall`)},
	{"Bikes", regexp.MustCompile(`\bbike\b|bicycle|bike lane|bikeway|pavement marking|striping`)},
	{"Maintenance/CRM", regexp.MustCompile(
		`encroachment|obstruction|overgrown|vegetation|hedge|sight distance|visibility|sidewalk obstruction`)},
}

// Tags returns the topic labels of rec followed by its surface and phase labels.
func (s *Scorer) Tags(rec *corpus.Record) []string {
	hay := strings.ToLower(rec.Heading + " " + rec.Text + " " + rec.Snippet + " " + rec.Anchor)

	var tags []string
	for _, r := range tagRules {
		if r.re.MatchString(hay) {
			tags = append(tags, r.label)
		}
	}
	if surface := s.surface.Classify(hay); surface != "" {
		tags = append(tags, surface)
	}
	if phase := s.phase.Classify(hay); phase != "" {
		tags = append(tags, phase)
	}
	return tags
}
