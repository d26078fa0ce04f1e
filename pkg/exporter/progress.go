package exporter

import "time"

// Stage marks where in an export run a progress event was emitted
type Stage string

const (
	StageStart    Stage = "start"
	StageProgress Stage = "progress"
	StageDone     Stage = "done"
)

// ProgressEvent is one snapshot of a running export. Totals can grow
// mid-run: the all-collections export discovers items collection by
// collection.
type ProgressEvent struct {
	ScopeLabel string
	Stage      Stage
	Processed  int
	Total      int
	OK         int
	Failed     int
	// Collection and LastItem identify what was just worked on; either
	// may be empty.
	Collection string
	LastItem   string
	LastFile   string
}

// ProgressSink receives progress events. Delivery is best-effort: sinks
// must not block and their failures never affect the run.
type ProgressSink interface {
	Emit(ProgressEvent)
}

// NopSink discards all events
type NopSink struct{}

func (NopSink) Emit(ProgressEvent) {}

// Notifier is the user-facing notification surface. ShowOrUpdate replaces
// the previous notification rather than stacking a new one.
type Notifier interface {
	ShowOrUpdate(title, message string)
	Clear()
}

// NopNotifier discards all notifications
type NopNotifier struct{}

func (NopNotifier) ShowOrUpdate(title, message string) {}
func (NopNotifier) Clear()                             {}

// Throttler decides whether a notification is due for the Nth processed
// item. Eligible counts are multiples of everyN spaced at least minInterval
// apart; a staleness override fires regardless of count once twice the
// interval has passed, so slow runs still show signs of life.
type Throttler struct {
	everyN      int
	minInterval time.Duration
	now         func() time.Time
	last        time.Time
}

// NewThrottler creates a throttler; everyN and minInterval fall back to
// sane values when non-positive.
func NewThrottler(everyN int, minInterval time.Duration) *Throttler {
	if everyN <= 0 {
		everyN = 10
	}
	if minInterval <= 0 {
		minInterval = 3 * time.Second
	}
	return &Throttler{everyN: everyN, minInterval: minInterval, now: time.Now}
}

// ShouldNotify reports whether a notification for processed count n is due
func (t *Throttler) ShouldNotify(n int) bool {
	now := t.now()
	if n%t.everyN == 0 && now.Sub(t.last) >= t.minInterval {
		t.last = now
		return true
	}
	if now.Sub(t.last) >= 2*t.minInterval {
		t.last = now
		return true
	}
	return false
}
