package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"
	"jirai-backend/internal/domain/workspace"

	"github.com/spf13/cobra"
)

type timelineOptions struct {
	file     string
	sample   bool
	zoom     string
	date     string
	asJSON   bool
	emptyDay bool
}

func newTimelineCmd(flags *globalFlags) *cobra.Command {
	opts := &timelineOptions{}
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Render the timeline of an exported canvas",
		Long: `Reads a canvas in the shape served by GET /sessions/{sid}/graph and
prints the scheduled nodes per day for the chosen zoom level.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTimeline(cmd, flags, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "canvas JSON file, - for stdin")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "use the sample workspace instead of a file")
	cmd.Flags().StringVar(&opts.zoom, "zoom", string(timeline.ZoomWeek), "hour, day, week, month or year")
	cmd.Flags().StringVar(&opts.date, "date", "", "cursor date, today when empty")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the projection as JSON")
	cmd.Flags().BoolVar(&opts.emptyDay, "all-days", false, "also list days without nodes")
	return cmd
}

func runTimeline(cmd *cobra.Command, flags *globalFlags, opts *timelineOptions) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	loc, err := cfg.Timeline.Loc()
	if err != nil {
		return err
	}
	topts := timeline.Options{WeekStart: cfg.Timeline.Weekday(), Location: loc}

	zoom, err := timeline.ParseZoom(opts.zoom)
	if err != nil {
		return err
	}
	cursor := time.Now().In(loc)
	if opts.date != "" {
		d := shared.ParseDate(opts.date)
		if !d.Valid {
			return fmt.Errorf("invalid --date %q", opts.date)
		}
		cursor = d.Time
	}

	state, err := readCanvas(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	projection := timeline.Project(state.Nodes, zoom, cursor, topts)
	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(projection)
	}
	return printProjection(out, projection, opts.emptyDay)
}

func readCanvas(stdin io.Reader, opts *timelineOptions) (graph.State, error) {
	if opts.sample {
		nodes, edges := workspace.Sample(time.Now())
		return graph.State{Nodes: nodes, Edges: edges}, nil
	}
	var r io.Reader
	switch opts.file {
	case "":
		return graph.State{}, errors.New("either --file or --sample is required")
	case "-":
		r = stdin
	default:
		f, err := os.Open(opts.file)
		if err != nil {
			return graph.State{}, err
		}
		defer f.Close()
		r = f
	}
	var state graph.State
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return graph.State{}, fmt.Errorf("decode canvas: %w", err)
	}
	return state, nil
}

func printProjection(w io.Writer, p timeline.Projection, emptyDays bool) error {
	fmt.Fprintf(w, "%s view, %s to %s, %d scheduled\n",
		p.Zoom, p.Interval.Start.Format(time.DateOnly), p.Interval.End.Format(time.DateOnly), p.Count())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range p.Buckets {
		if len(b.Nodes) == 0 && !emptyDays {
			continue
		}
		labels := make([]string, 0, len(b.Nodes))
		for _, n := range b.Nodes {
			labels = append(labels, fmt.Sprintf("%s (%s)", n.Data.Label, n.Type()))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Day.Format("Mon"), b.Key, strings.Join(labels, ", "))
	}
	return tw.Flush()
}
