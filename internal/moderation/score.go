package moderation

import "github.com/okastudio/platewatch/internal/models"

// Default severity weights per report type. More harmful categories weigh
// heavier so a handful of harassment reports can outrank a pile of spam flags.
var defaultWeights = map[models.ReportType]float64{
	models.ReportTypeSpam:          1,
	models.ReportTypeInappropriate: 3,
	models.ReportTypeCopyright:     2,
	models.ReportTypeHarassment:    5,
	models.ReportTypeOther:         1,
}

// DefaultThreshold is the weighted score above which auto-moderation fires.
const DefaultThreshold = 10.0

// Policy bundles the tunable moderation rules: severity weights, the
// auto-moderation threshold, the action-to-status table, and suspension length.
type Policy struct {
	Weights        map[models.ReportType]float64
	Threshold      float64
	StatusTable    StatusTable
	SuspensionDays int
	AutoModeration bool
}

// DefaultPolicy returns the production rule set.
func DefaultPolicy() Policy {
	weights := make(map[models.ReportType]float64, len(defaultWeights))
	for reportType, weight := range defaultWeights {
		weights[reportType] = weight
	}
	return Policy{
		Weights:        weights,
		Threshold:      DefaultThreshold,
		StatusTable:    DefaultStatusTable(),
		SuspensionDays: 7,
		AutoModeration: true,
	}
}

// Weight returns the severity weight for a report type. Unknown types weigh
// like OTHER so malformed rows never zero out a group's score.
func (p Policy) Weight(reportType models.ReportType) float64 {
	if weight, ok := p.Weights[reportType]; ok {
		return weight
	}
	return p.Weights[models.ReportTypeOther]
}

// WeightedScore computes sum(count * weight) over a report-type histogram.
func (p Policy) WeightedScore(breakdown map[models.ReportType]int) float64 {
	var score float64
	for reportType, count := range breakdown {
		if count <= 0 {
			continue
		}
		score += float64(count) * p.Weight(reportType)
	}
	return score
}

// MostSevereType returns the present type with the highest weight. Ties are
// broken by taxonomy declaration order, not by count. The second return is
// false when the histogram is empty.
func (p Policy) MostSevereType(breakdown map[models.ReportType]int) (models.ReportType, bool) {
	var (
		best      models.ReportType
		bestSeen  bool
		bestScore float64
	)
	for _, reportType := range models.ReportTypes {
		if breakdown[reportType] <= 0 {
			continue
		}
		weight := p.Weight(reportType)
		if !bestSeen || weight > bestScore {
			best = reportType
			bestScore = weight
			bestSeen = true
		}
	}
	return best, bestSeen
}

// Exceeds reports whether a weighted score crosses the auto-moderation
// threshold. The comparison is strictly greater-than.
func (p Policy) Exceeds(score float64) bool {
	return score > p.Threshold
}
