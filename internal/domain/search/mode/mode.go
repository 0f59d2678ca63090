package mode

// Mode is the minimum-evidence policy applied before scoring.
type Mode string

// Evidence mode constants.
const (
	// All requires every salient query token (or a phrase hit).
	All Mode = "all"
	// Any accepts a phrase hit, any single token hit, or any shared concept.
	// Used for long synthetic queries where "all tokens" is too strict.
	Any Mode = "any"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == All || m == Any
}
