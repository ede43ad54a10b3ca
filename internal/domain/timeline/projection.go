package timeline

import (
	"time"

	"jirai-backend/internal/domain/node"
)

const dayKeyLayout = "2006-01-02"

// Bucket holds the nodes scheduled on one day, in source order.
type Bucket struct {
	Day   time.Time   `json:"day"`
	Key   string      `json:"key"`
	Nodes []node.Node `json:"nodes"`
}

// Projection is the bucketed view of a node collection at a zoom level.
type Projection struct {
	Zoom     ZoomLevel `json:"zoom"`
	Cursor   time.Time `json:"cursor"`
	Interval Interval  `json:"interval"`
	Buckets  []Bucket  `json:"buckets"`
}

// Count returns the number of scheduled nodes across all buckets.
func (p Projection) Count() int {
	total := 0
	for _, b := range p.Buckets {
		total += len(b.Nodes)
	}
	return total
}

// Project buckets nodes into the days of the interval for zoom and cursor.
// Nodes without a valid date, or dated outside the interval, are left out.
func Project(nodes []node.Node, zoom ZoomLevel, cursor time.Time, opts Options) Projection {
	interval := IntervalFor(zoom, cursor, opts)
	return Projection{
		Zoom:     zoom.Effective(),
		Cursor:   cursor,
		Interval: interval,
		Buckets:  bucketize(nodes, interval.Days(), opts),
	}
}

func bucketize(nodes []node.Node, days []time.Time, opts Options) []Bucket {
	buckets := make([]Bucket, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		key := d.Format(dayKeyLayout)
		buckets[i] = Bucket{Day: d, Key: key, Nodes: []node.Node{}}
		index[key] = i
	}
	loc := opts.loc()
	for _, n := range nodes {
		when, ok := Scheduled(n)
		if !ok {
			continue
		}
		i, ok := index[when.In(loc).Format(dayKeyLayout)]
		if !ok {
			continue
		}
		buckets[i].Nodes = append(buckets[i].Nodes, n)
	}
	return buckets
}

// Cell is one day of the month grid. Padding days from the neighbouring
// months have InMonth false but still carry their nodes.
type Cell struct {
	Bucket
	InMonth bool `json:"inMonth"`
}

// Grid is a month laid out in whole weeks.
type Grid struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Interval Interval   `json:"interval"`
	Cells    []Cell     `json:"cells"`
}

// Weeks splits the cells into rows of seven.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(g.Cells)/7)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// MonthGrid lays out the cursor's month padded to full weeks at both ends.
// The cell count is always a multiple of seven.
func MonthGrid(nodes []node.Node, cursor time.Time, opts Options) Grid {
	month := IntervalFor(ZoomMonth, cursor, opts)
	padded := Interval{
		Start: startOfWeek(month.Start, opts.WeekStart),
		End:   endOfWeek(month.End, opts.WeekStart),
	}

	buckets := bucketize(nodes, padded.Days(), opts)
	cells := make([]Cell, len(buckets))
	for i, b := range buckets {
		cells[i] = Cell{Bucket: b, InMonth: b.Day.Month() == month.Start.Month()}
	}
	return Grid{
		Year:     month.Start.Year(),
		Month:    month.Start.Month(),
		Interval: padded,
		Cells:    cells,
	}
}
