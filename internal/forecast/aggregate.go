package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alexivanou/weather-widget/internal/model"
)

// MaxDays is the number of days returned after the current one
const MaxDays = 5

// ErrInvalidSample is returned when a sample cannot be placed on a calendar day
var ErrInvalidSample = errors.New("invalid forecast sample")

type dayKey struct {
	year  int
	month time.Month
	day   int
}

type dayBucket struct {
	date    time.Time
	samples []model.WeatherSample
}

// Aggregate groups samples by their calendar date in loc and summarises each day.
// The first date seen is treated as today and skipped; at most MaxDays follow.
// A nil loc means the process local timezone.
func Aggregate(samples []model.WeatherSample, loc *time.Location) ([]model.DailyForecast, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(samples) == 0 {
		return []model.DailyForecast{}, nil
	}

	var order []dayKey
	buckets := make(map[dayKey]*dayBucket)

	for i, s := range samples {
		if s.Timestamp <= 0 {
			return nil, fmt.Errorf("%w: sample %d has no timestamp", ErrInvalidSample, i)
		}

		t := s.Time(loc)
		y, m, d := t.Date()
		k := dayKey{year: y, month: m, day: d}

		b, ok := buckets[k]
		if !ok {
			b = &dayBucket{date: time.Date(y, m, d, 0, 0, 0, 0, loc)}
			buckets[k] = b
			order = append(order, k)
		}
		b.samples = append(b.samples, s)
	}

	// drop today
	order = order[1:]
	if len(order) > MaxDays {
		order = order[:MaxDays]
	}

	out := make([]model.DailyForecast, 0, len(order))
	for _, k := range order {
		out = append(out, summarize(buckets[k]))
	}
	return out, nil
}

func summarize(b *dayBucket) model.DailyForecast {
	var sum float64
	for _, s := range b.samples {
		sum += s.Temperature
	}
	n := len(b.samples)
	rep := b.samples[n/2]

	return model.DailyForecast{
		Date:           b.date,
		Weekday:        b.date.Format("Mon"),
		AvgTemperature: int(math.Round(sum / float64(n))),
		ConditionCode:  rep.ConditionCode,
		Description:    rep.Description,
		Category:       model.CategoryOf(rep.ConditionCode),
		Samples:        n,
	}
}
