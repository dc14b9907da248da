// Package timeseries holds the chart arithmetic for node param history:
// interval and segment vocabulary, axis ticks and labels, and the duration
// navigation used when paging through a chart.
package timeseries

import (
	"fmt"
	"strings"
)

const (
	minuteSeconds = 60
	hourSeconds   = 3600
	daySeconds    = 86400
	weekSeconds   = 7 * daySeconds
)

type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHour   Interval = "hour"
	IntervalDay    Interval = "day"
	IntervalWeek   Interval = "week"
	IntervalMonth  Interval = "month"
	IntervalYear   Interval = "year"
)

var intervals = []Interval{IntervalMinute, IntervalHour, IntervalDay, IntervalWeek, IntervalMonth, IntervalYear}

func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, iv := range intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("timeseries: unknown interval %q", s)
}

type Aggregate string

const (
	AggregateAvg    Aggregate = "avg"
	AggregateMin    Aggregate = "min"
	AggregateMax    Aggregate = "max"
	AggregateCount  Aggregate = "count"
	AggregateLatest Aggregate = "latest"
	AggregateRaw    Aggregate = "raw"
)

func ParseAggregate(s string) (Aggregate, error) {
	switch a := Aggregate(strings.ToLower(strings.TrimSpace(s))); a {
	case AggregateAvg, AggregateMin, AggregateMax, AggregateCount, AggregateLatest, AggregateRaw:
		return a, nil
	}
	return "", fmt.Errorf("timeseries: unknown aggregate %q", s)
}

type ChartType string

const (
	ChartBar  ChartType = "Bar"
	ChartLine ChartType = "Line"
)

// Segment is the duration picker shown above a chart.
type Segment string

const (
	SegmentDay   Segment = "1D"
	SegmentWeek  Segment = "7D"
	SegmentMonth Segment = "4W"
	SegmentYear  Segment = "1Y"
)

// Interval returns the bucket size a segment is plotted with.
func (s Segment) Interval() Interval {
	switch s {
	case SegmentWeek:
		return IntervalDay
	case SegmentMonth:
		return IntervalWeek
	case SegmentYear:
		return IntervalMonth
	default:
		return IntervalHour
	}
}
