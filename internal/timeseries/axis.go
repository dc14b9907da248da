package timeseries

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// MaxTicks bounds one axis; a day at minute resolution (1440) fits.
const MaxTicks = 2048

var (
	ErrTooManyTicks = fmt.Errorf("axis needs more than %d ticks", MaxTicks)
	ErrBadRange     = errors.New("axis range must be finite with a step above float precision")
)

// Tick is one labelled axis value. X values are unix seconds.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type Axis struct {
	First float64 `json:"first"`
	Last  float64 `json:"last"`
	Step  float64 `json:"step"`
	Ticks []Tick  `json:"ticks"`
}

// XAxis lays out the time axis for interval over [start, end] (unix seconds).
// Labels are rendered in loc; nil means GMT.
func XAxis(iv Interval, start, end int64, loc *time.Location) (Axis, error) {
	if loc == nil {
		loc = time.UTC
	}
	first, last := float64(start), float64(end)
	var step float64
	switch iv {
	case IntervalMinute:
		step = minuteSeconds
	case IntervalHour:
		// The whole day containing start is plotted.
		s, e := dayBounds(time.Unix(start, 0).In(loc))
		first, last = float64(s), float64(e)
		step = 6 * hourSeconds
	case IntervalDay:
		step = daySeconds
		last -= daySeconds
	case IntervalWeek:
		step = weekSeconds
	case IntervalMonth:
		step = 32 * daySeconds
	default:
		step = weekSeconds
	}

	ax := Axis{First: first, Last: last, Step: step}
	vals, err := multiples(first, last, step)
	if err != nil {
		return Axis{}, err
	}
	for _, v := range vals {
		ax.Ticks = append(ax.Ticks, Tick{Value: v, Label: XLabel(iv, int64(v), loc)})
	}
	return ax, nil
}

// XLabel formats one x-axis value.
func XLabel(iv Interval, ts int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Unix(ts, 0).In(loc)
	switch iv {
	case IntervalMinute:
		return t.Format("03:04 PM")
	case IntervalHour:
		return t.Format("03 PM")
	case IntervalDay:
		return t.Format("Mon")
	case IntervalWeek:
		return t.Format("02/01")
	case IntervalMonth:
		return t.Format("Jan")
	default:
		return t.Format("2006")
	}
}

// YAxis lays out the value axis for data spanning [min, max].
func YAxis(min, max float64) (Axis, error) {
	step := 5.0
	if (max-min)/5 > 18 {
		step = (max - min) / 18
	}
	ax := Axis{First: min - step, Last: max + 5, Step: step}
	vals, err := multiples(ax.First, ax.Last, step)
	if err != nil {
		return Axis{}, err
	}
	for _, v := range vals {
		ax.Ticks = append(ax.Ticks, Tick{Value: v, Label: strconv.FormatFloat(round2(v), 'f', -1, 64)})
	}
	return ax, nil
}

// multiples returns every multiple of step inside [first, last], at most
// MaxTicks of them.
func multiples(first, last, step float64) ([]float64, error) {
	for _, f := range []float64{first, last, step} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrBadRange
		}
	}
	if step <= 0 || last < first {
		return nil, nil
	}
	lo := math.Ceil(first / step)
	hi := math.Floor(last / step)
	if hi < lo {
		return nil, nil
	}
	if hi-lo+1 > MaxTicks {
		return nil, ErrTooManyTicks
	}
	// Adjacent ticks must stay distinct.
	if lo*step+step == lo*step || hi*step-step == hi*step {
		return nil, ErrBadRange
	}
	n := int(hi-lo) + 1
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, (lo+float64(i))*step)
	}
	return out, nil
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// dayBounds returns the first and last second of t's calendar day.
func dayBounds(t time.Time) (int64, int64) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start.Unix(), start.AddDate(0, 0, 1).Unix() - 1
}
