package enums

// Competition is the mock competition bucket attached to a keyword.
type Competition string

const (
	CompetitionLow    Competition = "Low"
	CompetitionMedium Competition = "Medium"
	CompetitionHigh   Competition = "High"
)

// Competitions lists the buckets in the order the generator samples them.
var Competitions = []Competition{
	CompetitionLow,
	CompetitionMedium,
	CompetitionHigh,
}

// String implements fmt.Stringer.
func (c Competition) String() string {
	return string(c)
}
