package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rmnotify/internal/timeseries"
)

var (
	axisInterval string
	axisSegment  string
	axisStart    int64
	axisEnd      int64
	axisTZ       string
	axisPage     string
)

var axisCmd = &cobra.Command{
	Use:     "axis",
	Short:   "Print chart axis ticks for an interval",
	GroupID: "charts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		iv, err := axisIntervalFromFlags()
		if err != nil {
			return err
		}
		loc := time.UTC
		if axisTZ != "" {
			if loc, err = time.LoadLocation(axisTZ); err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
		}

		a := timeseries.NewArgs(timeseries.AggregateAvg, iv, time.Now())
		a.Duration = a.Latest(time.Now())
		if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
			a.Duration = timeseries.Duration{Start: axisStart, End: axisEnd}
		}
		switch axisPage {
		case "":
		case "next":
			a.Duration = a.Next()
		case "prev":
			a.Duration = a.Previous()
		default:
			return fmt.Errorf("--page must be next or prev")
		}

		ax, err := timeseries.XAxis(iv, a.Duration.Start, a.Duration.End, loc)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{"label": a.Label(), "duration": a.Duration, "x": ax})
		}
		if l := a.Label(); l != "" {
			fmt.Println(l)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UNIX\tLABEL")
		for _, t := range ax.Ticks {
			fmt.Fprintf(w, "%d\t%s\n", int64(t.Value), t.Label)
		}
		return w.Flush()
	},
}

func axisIntervalFromFlags() (timeseries.Interval, error) {
	if axisSegment != "" {
		switch s := timeseries.Segment(axisSegment); s {
		case timeseries.SegmentDay, timeseries.SegmentWeek, timeseries.SegmentMonth, timeseries.SegmentYear:
			return s.Interval(), nil
		default:
			return "", fmt.Errorf("unknown --segment %q (1D, 7D, 4W or 1Y)", axisSegment)
		}
	}
	return timeseries.ParseInterval(axisInterval)
}

func init() {
	axisCmd.Flags().StringVar(&axisInterval, "interval", "hour", "minute, hour, day, week, month or year")
	axisCmd.Flags().StringVar(&axisSegment, "segment", "", "duration segment (1D, 7D, 4W, 1Y); overrides --interval")
	axisCmd.Flags().Int64Var(&axisStart, "start", 0, "range start (unix seconds)")
	axisCmd.Flags().Int64Var(&axisEnd, "end", 0, "range end (unix seconds)")
	axisCmd.Flags().StringVar(&axisTZ, "tz", "", "IANA time zone for labels (default GMT)")
	axisCmd.Flags().StringVar(&axisPage, "page", "", "move the range: next or prev")
}
