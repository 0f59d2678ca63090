// Package separation builds utility-to-utility separation lookups: the synthetic query, the
// eligibility rule and the separation-language boost.
package separation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
)

// TopN is the number of separation matches returned.
const TopN = 3

// Orientation is the separation direction.
type Orientation string

// Orientations.
const (
	Horizontal Orientation = "H"
	Vertical   Orientation = "V"
)

// ParseOrientation accepts H/V and their spelled-out forms; empty means horizontal.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "H", "HORIZONTAL":
		return Horizontal, nil
	case "V", "VERTICAL":
		return Vertical, nil
	default:
		return "", fmt.Errorf("%w: unknown orientation %q", domain.ErrInvalidQuery, s)
	}
}

func (o Orientation) word() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Utility is one selectable utility with its synonyms.
type Utility struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Terms []string `json:"terms"`
}

var utilities = []Utility{
	{ID: "GAS", Label: "Gas", Terms: []string{"gas", "natural gas"}},
	{ID: "WATER", Label: "Water", Terms: []string{"water", "potable", "domestic water"}},
	{ID: "SANITARY", Label: "Sanitary sewer", Terms: []string{"sanitary", "sewer", "sanitary sewer"}},
	{ID: "STORM", Label: "Storm sewer", Terms: []string{"storm", "drainage", "storm sewer"}},
	{ID: "ELECTRIC", Label: "Electric", Terms: []string{"electric", "power", "primary", "secondary"}},
	{ID: "TELECOM", Label: "Telecom / fiber", Terms: []string{
		"telecom", "telecommunication", "communications", "fiber", "fibre", "catv",
	}},
}

// Utilities returns the selectable utilities in display order.
func Utilities() []Utility { return utilities }

// LookupUtility finds a utility by id, case-insensitively.
func LookupUtility(id string) (Utility, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	for _, u := range utilities {
		if u.ID == id {
			return u, nil
		}
	}
	return Utility{}, fmt.Errorf("%w: unknown utility %q", domain.ErrInvalidQuery, id)
}

// queryTerms is the label followed by the synonyms, exact duplicates removed.
func (u Utility) queryTerms() []string {
	out := make([]string, 0, len(u.Terms)+1)
	seen := make(map[string]struct{}, len(u.Terms)+1)
	for _, t := range append([]string{u.Label}, u.Terms...) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (u Utility) hitTerms() []string {
	return append(append([]string(nil), u.Terms...), u.Label)
}

// Separation language.
var (
	coreTerms     = []string{"separation", "clearance", "offset", "parallel", "crossing", "encase", "encased", "sleeve", "trench", "conduit", "duct"}
	weakTerms     = []string{"minimum", "shall", "maintain", "feet", "foot", "ft", "inches", "inch", "in."}
	verticalCore  = []string{"vertical", "above", "below", "over", "under", "crossing"}
	verticalCover = []string{"cover", "depth"}
	horizCore     = []string{"horizontal", "parallel", "lateral", "offset"}
	drainageTerms = []string{"ditch", "ditches", "culvert", "culverts", "headwall", "flume", "channel", "inlet", "outfall", "riprap", "hydraulic", "scour", "waterway"}

	verticalSignals   = []string{"separation", "clearance", "vertical", "above", "below", "over", "under", "crossing", "offset", "encase", "encased", "sleeve"}
	horizontalSignals = []string{"separation", "clearance", "horizontal", "parallel", "lateral", "offset", "crossing", "encase", "encased", "sleeve"}
)

// Boost values.
const (
	utilityPresent   = 70
	bothPresent      = 240
	coreHit, coreCap = 28, 220
	weakHit, weakCap = 6, 80
	orientHit        = 18
	orientCap        = 160
	coverBothHit     = 10
	coverBothCap     = 40
	coverHit         = 4
	coverCap         = 12
	drainExplicit    = 120
	drainPenalty     = 320
)

// Lookup is one separation question: new utility against existing utility in one direction.
type Lookup struct {
	New         Utility
	Existing    Utility
	Orientation Orientation
}

// NewLookup validates the utility ids and orientation.
func NewLookup(newID, existingID, orientation string) (Lookup, error) {
	nu, err := LookupUtility(newID)
	if err != nil {
		return Lookup{}, err
	}
	ex, err := LookupUtility(existingID)
	if err != nil {
		return Lookup{}, err
	}
	o, err := ParseOrientation(orientation)
	if err != nil {
		return Lookup{}, err
	}
	return Lookup{New: nu, Existing: ex, Orientation: o}, nil
}

// Query is the deterministic synthetic query favoring separation wording.
func (l Lookup) Query() string {
	sep := "horizontal separation clearance offset parallel crossing"
	if l.Orientation == Vertical {
		sep = "vertical separation clearance depth cover above below crossing"
	}
	parts := []string{
		strings.Join(l.New.queryTerms(), " "),
		strings.Join(l.Existing.queryTerms(), " "),
		l.Orientation.word(),
		sep,
		"minimum shall maintain",
	}
	return strings.Join(parts, " ")
}

func haystack(rec *corpus.Record) string {
	return concept.Normalize(rec.Anchor + " " + rec.Heading + " " + rec.Body())
}

func countAny(hay string, terms []string) int {
	n := 0
	for _, t := range terms {
		if tn := concept.Normalize(t); tn != "" && strings.Contains(hay, tn) {
			n++
		}
	}
	return n
}

// Eligible requires both utilities and at least one separation signal for the orientation.
func (l Lookup) Eligible(rec *corpus.Record) bool {
	hay := haystack(rec)
	if countAny(hay, l.New.hitTerms()) == 0 || countAny(hay, l.Existing.hitTerms()) == 0 {
		return false
	}
	signals := horizontalSignals
	if l.Orientation == Vertical {
		signals = verticalSignals
	}
	return countAny(hay, signals) > 0
}

// Boost is the separation-specific score added on top of the relevance score.
func (l Lookup) Boost(rec *corpus.Record) float64 {
	hay := haystack(rec)
	nuHits := countAny(hay, l.New.hitTerms())
	exHits := countAny(hay, l.Existing.hitTerms())
	both := nuHits > 0 && exHits > 0

	bonus := 0
	if nuHits > 0 {
		bonus += utilityPresent
	}
	if exHits > 0 {
		bonus += utilityPresent
	}
	if both {
		bonus += bothPresent
	}

	bonus += min(coreCap, countAny(hay, coreTerms)*coreHit) + min(weakCap, countAny(hay, weakTerms)*weakHit)

	if l.Orientation == Vertical {
		bonus += min(orientCap, countAny(hay, verticalCore)*orientHit)
		cover := countAny(hay, verticalCover)
		if both {
			bonus += min(coverBothCap, cover*coverBothHit)
		} else {
			bonus += min(coverCap, cover*coverHit)
		}
	} else {
		bonus += min(orientCap, countAny(hay, horizCore)*orientHit)
	}

	if countAny(hay, drainageTerms) > 0 {
		explicit := strings.Contains(hay, "separation") || strings.Contains(hay, "clearance") ||
			strings.Contains(hay, "offset")
		if explicit {
			bonus -= drainExplicit
		} else {
			bonus -= drainPenalty
		}
	}
	return float64(bonus)
}
