package services

import (
	"github.com/servana/reviews-api/internal/models"
)

// GradeProvider buckets a provider's reputation into a qualitative label.
// Inputs are the mean rating, the total review count and the count of
// low ratings (2 stars or fewer), all over the full unfiltered review
// set. Rules are evaluated top to bottom, first match wins.
func GradeProvider(avg float64, total, low int) string {
	switch {
	case total < 3:
		return models.GradeNew
	case avg >= 4.5 && low == 0:
		return models.GradeExcellent
	case avg >= 4.0 && low <= 1:
		return models.GradeVeryGood
	case avg >= 3.0:
		return models.GradeAverage
	default:
		return models.GradeNeedsImprovement
	}
}
