package grading

// Classification is the education-level grouping of the class an exam
// belongs to. It selects which grade-band table applies.
type Classification string

const (
	// CBC levels: competency bands EE/ME/AE/BE.
	ClassificationPrePrimary      Classification = "pre_primary"
	ClassificationLowerPrimary    Classification = "lower_primary"
	ClassificationUpperPrimary    Classification = "upper_primary"
	ClassificationJuniorSecondary Classification = "junior_secondary"

	// Secondary levels: letter grades A..E.
	ClassificationSecondary       Classification = "secondary"
	ClassificationSeniorSecondary Classification = "senior_secondary"

	// Everything else (tertiary, unclassified): honours-style bands.
	ClassificationTertiary Classification = "tertiary"
)

// ClassificationForLevel maps a class level string (as stored on the
// classes table) to its grading group. Unknown levels fall back to the
// tertiary table.
func ClassificationForLevel(level string) Classification {
	switch Classification(level) {
	case ClassificationPrePrimary, ClassificationLowerPrimary,
		ClassificationUpperPrimary, ClassificationJuniorSecondary,
		ClassificationSecondary, ClassificationSeniorSecondary,
		ClassificationTertiary:
		return Classification(level)
	default:
		return ClassificationTertiary
	}
}

type band struct {
	min   float64 // percentage >= min
	label string
}

// Threshold tables, highest qualifying band wins. The final entry has
// min 0 so every percentage maps to a label.
var (
	cbcBands = []band{
		{75, "EE"}, // Exceeding Expectation
		{50, "ME"}, // Meeting Expectation
		{25, "AE"}, // Approaching Expectation
		{0, "BE"},  // Below Expectation
	}
	secondaryBands = []band{
		{75, "A"},
		{60, "B"},
		{50, "C"},
		{35, "D"},
		{0, "E"},
	}
	tertiaryBands = []band{
		{70, "First Class"},
		{60, "Second Upper"},
		{50, "Second Lower"},
		{40, "Pass"},
		{0, "Fail"},
	}
)

// Band converts a percentage score to its grade label for the given
// classification. Both the online submit flow and the offline bulk
// results entry go through here.
func Band(percentage float64, c Classification) string {
	var table []band
	switch c {
	case ClassificationPrePrimary, ClassificationLowerPrimary,
		ClassificationUpperPrimary, ClassificationJuniorSecondary:
		table = cbcBands
	case ClassificationSecondary, ClassificationSeniorSecondary:
		table = secondaryBands
	default:
		table = tertiaryBands
	}
	for _, b := range table {
		if percentage >= b.min {
			return b.label
		}
	}
	return table[len(table)-1].label
}

// Percentage computes 100*score/max, guarding the zero denominator.
func Percentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return 100 * score / max
}
