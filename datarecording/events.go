package datarecording

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/instrumentation/hooking"
)

// FiredEventsTable is the table EventRecorder writes into.
const FiredEventsTable = "fired_events"

// EventRow is one fired event as stored on disk. Time is kept both as the
// raw fixed-point value, which replays exactly, and in seconds for humans.
type EventRow struct {
	RunID   string
	Seq     int64
	EventID int64
	Class   string
	Target  int64
	TimeRaw int64
	Seconds float64
}

// RowFromRecord converts a store record into a row of the fired events table.
func RowFromRecord(runID string, rec event.Record) EventRow {
	return EventRow{
		RunID:   runID,
		Seq:     int64(rec.Seq),
		EventID: int64(rec.EventID),
		Class:   rec.Class,
		Target:  int64(rec.Target),
		TimeRaw: int64(rec.Time),
		Seconds: rec.Time.Seconds(),
	}
}

// EventRecorder is a loop hook that stores every fired event. A loop Reset
// starts a new run with a fresh run id.
type EventRecorder struct {
	recorder DataRecorder
	log      logrus.FieldLogger

	mu    sync.Mutex
	runID string
	err   error
}

// NewEventRecorder creates the fired events table and returns a hook that
// fills it. Each recorder gets its own run id, so several runs can share one
// file.
func NewEventRecorder(
	recorder DataRecorder,
	log logrus.FieldLogger,
) (*EventRecorder, error) {
	if err := recorder.CreateTable(FiredEventsTable, EventRow{}); err != nil {
		return nil, err
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &EventRecorder{
		recorder: recorder,
		runID:    uuid.NewString(),
		log:      log,
	}, nil
}

// RunID returns the id written in the rows of the current run.
func (r *EventRecorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.runID
}

// Err returns the first error seen while recording.
func (r *EventRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}

// Func implements hooking.Hook.
func (r *EventRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case event.HookPosBeforeEvent:
		rec, ok := ctx.Detail.(event.Record)
		if !ok {
			return
		}

		r.keep(r.recorder.InsertData(FiredEventsTable,
			RowFromRecord(r.RunID(), rec)))
	case event.HookPosAfterRun:
		r.keep(r.recorder.Flush())
	case event.HookPosReset:
		r.mu.Lock()
		r.runID = uuid.NewString()
		r.mu.Unlock()
	}
}

func (r *EventRecorder) keep(err error) {
	if err == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err == nil {
		r.err = err
		r.log.WithError(err).WithField("run", r.runID).
			Warn("recording fired events failed")
	}
}

var _ hooking.Hook = (*EventRecorder)(nil)
