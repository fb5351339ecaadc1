package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/syifan/goseth"

	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/timing"
)

// recentRecords is how many store records a snapshot keeps.
const recentRecords = 32

// A TimeView is a virtual time as shown by the monitor.
type TimeView struct {
	Raw     int64   `json:"raw"`
	Seconds float64 `json:"seconds"`
	Text    string  `json:"text"`
}

func viewTime(t timing.VTime) TimeView {
	return TimeView{Raw: int64(t), Seconds: t.Seconds(), Text: t.String()}
}

// QueuedEvent is a scheduled event in a snapshot.
type QueuedEvent struct {
	ID     uint64 `json:"id"`
	Class  string `json:"class"`
	Target string `json:"target"`
	Time   string `json:"time"`
}

// StoreView summarizes the event store.
type StoreView struct {
	Len    int            `json:"len"`
	Recent []event.Record `json:"recent"`
}

// TargetView is a target with its entity serialized one level deep.
type TargetView struct {
	ID     uint64          `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Snapshot is a copy of the loop state taken on the simulation thread.
type Snapshot struct {
	Now     TimeView      `json:"now"`
	Queue   []QueuedEvent `json:"queue"`
	Store   StoreView     `json:"store"`
	Targets []TargetView  `json:"targets"`
}

// Capture copies the observable state of loop. It must run on the goroutine
// that drives the loop.
func Capture(loop *event.Loop) Snapshot {
	s := Snapshot{
		Now:   viewTime(loop.CurrentTime()),
		Queue: []QueuedEvent{},
		Store: StoreView{Len: loop.Store().Len()},
	}

	for _, evt := range loop.Queue().Events() {
		s.Queue = append(s.Queue, QueuedEvent{
			ID:     uint64(evt.ID()),
			Class:  evt.Class().Name,
			Target: evt.Target().String(),
			Time:   evt.Time().String(),
		})
	}

	s.Store.Recent = loop.Store().Since(
		uint64(max(0, loop.Store().Len()-recentRecords)))

	loop.Targets().Each(func(id event.TargetID, entity any) bool {
		s.Targets = append(s.Targets, TargetView{
			ID:     uint64(id),
			Name:   id.String(),
			Type:   fmt.Sprintf("%T", entity),
			Detail: serialize(entity),
		})

		return true
	})

	return s
}

func serialize(entity any) json.RawMessage {
	buf := bytes.NewBuffer(nil)

	serializer := goseth.NewSerializer()
	serializer.SetRoot(entity)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(buf); err != nil || !json.Valid(buf.Bytes()) {
		return nil
	}

	return json.RawMessage(buf.Bytes())
}

func (s Snapshot) target(id uint64) (TargetView, bool) {
	for _, t := range s.Targets {
		if t.ID == id {
			return t, true
		}
	}

	return TargetView{}, false
}
