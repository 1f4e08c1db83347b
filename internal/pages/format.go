package pages

import (
	"math"
	"strconv"
	"time"
)

const (
	modelDateLayout         = "01/02/2006"
	feedbackTimestampLayout = "1/2/2006, 3:04:05 PM"
)

func formatModelDate(value time.Time) string {
	return value.Format(modelDateLayout)
}

func formatFeedbackTimestamp(value time.Time) string {
	return value.Format(feedbackTimestampLayout)
}

func formatParameterCount(billions float64) string {
	return strconv.FormatFloat(billions, 'f', -1, 64) + "B"
}

func formatAverage(average float64) string {
	return strconv.FormatFloat(average, 'f', 1, 64)
}

func roundedRating(average float64) int {
	return int(math.Round(average))
}
