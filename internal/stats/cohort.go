// Package stats derives cohort comparison metrics from raw score
// distributions. Nothing here is persisted; comparisons are recomputed per
// request.
package stats

import (
	"fmt"

	"gradereel/api-gateway/models"
)

// CompareToCohort places score within the cohort's distribution. cohortScores
// is every graded accuracy score in the cohort for the same package, the
// student's own included. Returns nil when the distribution is empty.
func CompareToCohort(score float64, cohortScores []float64) *models.CohortComparison {
	total := len(cohortScores)
	if total == 0 {
		return nil
	}

	belowOrEqual := 0
	sum := 0.0
	for _, s := range cohortScores {
		if s <= score {
			belowOrEqual++
		}
		sum += s
	}

	return &models.CohortComparison{
		TotalStudents:        total,
		StudentsBelowOrEqual: belowOrEqual,
		CohortAvgAccScore:    sum / float64(total),
		Percentile:           float64(belowOrEqual) / float64(total) * 100,
		Rank:                 fmt.Sprintf("%s out of %d", ordinal(belowOrEqual), total),
	}
}

// ordinal renders 1 -> "1st", 2 -> "2nd", 13 -> "13th", etc.
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
		// 11th, 12th, 13th
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
