package monitor

// Point is a plottable sample: its position inside the plot window and
// the round-trip time in seconds.
type Point struct {
	Index   int
	Latency float64
}

// Segments takes the last n entries and groups maximal runs of
// consecutive successful probes, in chronological order. A lost probe
// terminates the current run and is not emitted itself, so outages show
// up as gaps between runs. Index is the position relative to the start
// of the window.
func Segments(entries []Entry, n int) [][]Point {
	var (
		runs [][]Point
		run  []Point
	)

	for i, e := range window(entries, n) {
		if e.Lost {
			if run != nil {
				runs = append(runs, run)
				run = nil
			}
			continue
		}
		run = append(run, Point{Index: i, Latency: e.Latency.Seconds()})
	}
	if run != nil {
		runs = append(runs, run)
	}

	return runs
}
