package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

// ratingValue parses a rating answer. Anything that is not a number in
// [1, 5] is stored but does not count towards the score.
func ratingValue(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || v < 1 || v > 5 {
		return 0, false
	}
	return v, true
}

// ComputeScore returns the mean of the valid ratings rounded to two decimals,
// or nil when there is none.
func ComputeScore(ratings []string) *float64 {
	var (
		sum   float64
		count int
	)
	for _, raw := range ratings {
		if v, ok := ratingValue(raw); ok {
			sum += v
			count++
		}
	}

	if count == 0 {
		return nil
	}

	score := roundScore(sum / float64(count))
	return &score
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func scoresEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return roundScore(*a) == roundScore(*b)
}

// ratingsOf picks the answers given to rating questions.
func ratingsOf(responses []models.ResponseWithQuestion) []string {
	var ratings []string
	for _, r := range responses {
		if r.QuestionType == models.QuestionTypeRating.String() {
			ratings = append(ratings, r.Value)
		}
	}
	return ratings
}

// Clock supplies the current time in the school's timezone, which decides
// what calendar day "today" is for due dates.
type Clock func() time.Time

func NewClock(loc *time.Location) Clock {
	return func() time.Time {
		return time.Now().In(loc)
	}
}
