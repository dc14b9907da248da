package timeseries

import "time"

// Duration is an inclusive range of unix seconds.
type Duration struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// DefaultDuration is the GMT calendar day containing now.
func DefaultDuration(now time.Time) Duration {
	s, e := dayBounds(now.UTC())
	return Duration{Start: s, End: e}
}

// Args is the query state behind one chart.
type Args struct {
	Aggregate Aggregate `json:"aggregate"`
	Interval  Interval  `json:"interval"`
	Duration  Duration  `json:"duration"`
	ChartType ChartType `json:"chart_type"`
}

// NewArgs fills the bar chart type and the default duration.
func NewArgs(agg Aggregate, iv Interval, now time.Time) Args {
	return Args{Aggregate: agg, Interval: iv, Duration: DefaultDuration(now), ChartType: ChartBar}
}

// Next returns the duration following a.Duration. Minute and year
// intervals do not page.
func (a Args) Next() Duration {
	d := a.Duration
	switch a.Interval {
	case IntervalHour:
		return Duration{Start: d.Start + daySeconds, End: d.End + daySeconds}
	case IntervalDay:
		return Duration{Start: d.End + 1, End: d.End + weekSeconds}
	case IntervalWeek:
		return Duration{Start: d.End + 1, End: d.End + 28*daySeconds}
	case IntervalMonth:
		first := monthStart(time.Unix(d.End+daySeconds, 0).UTC())
		return Duration{Start: first.Unix(), End: monthEnd(first.AddDate(0, 11, 0))}
	default:
		return d
	}
}

// Previous returns the duration preceding a.Duration.
func (a Args) Previous() Duration {
	d := a.Duration
	switch a.Interval {
	case IntervalHour:
		return Duration{Start: d.Start - daySeconds, End: d.End - daySeconds}
	case IntervalDay:
		return Duration{Start: d.Start - weekSeconds, End: d.Start - 1}
	case IntervalWeek:
		return Duration{Start: d.Start - 28*daySeconds, End: d.Start - 1}
	case IntervalMonth:
		first := monthStart(time.Unix(d.Start-daySeconds, 0).UTC())
		return Duration{Start: first.AddDate(0, -11, 0).Unix(), End: monthEnd(first)}
	default:
		return d
	}
}

// Latest returns the most recent duration for a.Interval as of now.
func (a Args) Latest(now time.Time) Duration {
	def := DefaultDuration(now)
	switch a.Interval {
	case IntervalHour:
		return def
	case IntervalDay:
		return Duration{Start: def.End - weekSeconds + 1, End: def.End}
	case IntervalWeek:
		return Duration{Start: def.End - 28*daySeconds + 1, End: def.End}
	case IntervalMonth:
		first := monthStart(now.UTC())
		return Duration{Start: first.AddDate(0, -11, 0).Unix(), End: monthEnd(first)}
	case IntervalYear:
		n := now.UTC()
		return Duration{Start: n.AddDate(-4, 0, 0).Unix(), End: n.Unix()}
	default:
		return a.Duration
	}
}

// Label is the caption shown above the chart, always in GMT.
func (a Args) Label() string {
	start := time.Unix(a.Duration.Start, 0).UTC()
	end := time.Unix(a.Duration.End, 0).UTC()
	switch a.Interval {
	case IntervalHour:
		return start.Format("Jan 2, 2006")
	case IntervalDay, IntervalWeek:
		return start.Format("2 Jan 06") + " - " + end.Format("2 Jan 06")
	case IntervalMonth:
		return start.Format("Jan 2006") + " - " + end.Format("Jan 2006")
	default:
		return ""
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthEnd returns the last day (midnight) of the month starting at first.
func monthEnd(first time.Time) int64 {
	return first.AddDate(0, 1, -1).Unix()
}
