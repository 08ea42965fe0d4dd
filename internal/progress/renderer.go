package progress

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// updateInterval is how often the renderer refreshes the tracker value.
const updateInterval = 100 * time.Millisecond

// trackerLength is the character width of the rendered bar.
const trackerLength = 30

// Renderer drives a terminal progress bar from a State, tracking bytes
// scanned against the known input size.
type Renderer struct {
	writer  progress.Writer
	tracker *progress.Tracker
	state   *State
	done    chan struct{}
	stopped chan struct{}
}

// NewRenderer returns a Renderer writing to out. totalBytes is the input
// size the bar counts toward.
func NewRenderer(state *State, totalBytes int64, out io.Writer) *Renderer {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetTrackerLength(trackerLength)
	pw.SetUpdateFrequency(updateInterval)
	pw.SetAutoStop(false)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Speed = true

	tracker := &progress.Tracker{
		Message: "splitting",
		Total:   totalBytes,
		Units:   progress.UnitsBytes,
	}
	pw.AppendTracker(tracker)

	return &Renderer{
		writer:  pw,
		tracker: tracker,
		state:   state,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins rendering in the background. It returns once the render
// loop is live, so a subsequent Stop is guaranteed to reach it.
func (r *Renderer) Start() {
	go r.writer.Render()

	for !r.writer.IsRenderInProgress() {
		time.Sleep(time.Millisecond)
	}

	go r.loop()
}

func (r *Renderer) loop() {
	defer close(r.stopped)

	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tracker.SetValue(r.state.BytesScanned.Load())
		case <-r.done:
			r.tracker.SetValue(r.state.BytesScanned.Load())
			return
		}
	}
}

// Stop finalizes the bar and blocks until rendering has ceased.
func (r *Renderer) Stop() {
	close(r.done)
	<-r.stopped

	r.tracker.MarkAsDone()
	r.writer.Stop()

	for r.writer.IsRenderInProgress() {
		time.Sleep(time.Millisecond)
	}
}
