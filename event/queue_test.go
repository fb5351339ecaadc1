package event_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/timing"
)

func at(n int64) timing.VTime {
	return timing.FromInt(n)
}

var _ = Describe("Queue", func() {
	var (
		queue  *event.Queue
		events []*event.Event
	)

	BeforeEach(func() {
		loop := event.NewLoop()
		target := loop.Targets().Add("target")
		cls := &event.Class{Name: "parked", Trigger: event.Dependency}

		events = nil
		for i := 0; i < 4; i++ {
			evt, err := loop.CreateEventFromClass(cls, target, 0, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(evt.Scheduled()).To(BeFalse())
			events = append(events, evt)
		}

		queue = event.NewQueue()
	})

	popAll := func() []*event.Event {
		var popped []*event.Event
		for queue.Len() > 0 {
			evt, err := queue.PopNext()
			Expect(err).NotTo(HaveOccurred())
			popped = append(popped, evt)
		}
		return popped
	}

	It("should fail to pop from an empty queue", func() {
		_, err := queue.PopNext()
		Expect(err).To(MatchError(event.ErrEmptyQueue))

		_, ok := queue.Peek()
		Expect(ok).To(BeFalse())
	})

	It("should pop in time order", func() {
		queue.Reschedule(events[0], at(5))
		queue.Reschedule(events[1], at(1))
		queue.Reschedule(events[2], at(3))

		popped := popAll()

		Expect(popped).To(Equal([]*event.Event{events[1], events[2], events[0]}))
		for _, evt := range popped {
			Expect(evt.Scheduled()).To(BeFalse())
		}
	})

	It("should pop equal times in insertion order", func() {
		queue.Reschedule(events[2], at(2))
		queue.Reschedule(events[0], at(2))
		queue.Reschedule(events[3], at(2))
		queue.Reschedule(events[1], at(2))

		Expect(popAll()).To(Equal(
			[]*event.Event{events[2], events[0], events[3], events[1]}))
	})

	It("should reflect rescheduling", func() {
		queue.Reschedule(events[0], at(1))
		queue.Reschedule(events[1], at(2))
		queue.Reschedule(events[2], at(3))

		queue.Reschedule(events[2], at(0))
		queue.Reschedule(events[0], at(9))

		Expect(queue.Len()).To(Equal(3))
		Expect(events[0].Time()).To(Equal(at(9)))
		Expect(popAll()).To(Equal([]*event.Event{events[2], events[1], events[0]}))
	})

	It("should move a pushed event behind events at the same time", func() {
		queue.Reschedule(events[0], at(1))
		queue.Reschedule(events[1], at(1))

		queue.Push(events[0])

		Expect(popAll()).To(Equal([]*event.Event{events[1], events[0]}))
	})

	It("should cancel idempotently", func() {
		queue.Reschedule(events[0], at(1))
		queue.Reschedule(events[1], at(2))

		queue.Cancel(events[0])
		queue.Cancel(events[0])
		queue.Cancel(events[3])

		Expect(queue.Contains(events[0])).To(BeFalse())
		Expect(queue.Contains(events[1])).To(BeTrue())
		Expect(popAll()).To(Equal([]*event.Event{events[1]}))
	})

	It("should peek without removing", func() {
		queue.Reschedule(events[0], at(4))
		queue.Reschedule(events[1], at(2))

		evt, ok := queue.Peek()
		Expect(ok).To(BeTrue())
		Expect(evt).To(BeIdenticalTo(events[1]))
		Expect(queue.Len()).To(Equal(2))
	})

	It("should iterate in firing order", func() {
		queue.Reschedule(events[0], at(3))
		queue.Reschedule(events[1], at(1))
		queue.Reschedule(events[2], at(2))

		var got []*event.Event
		it := queue.Iter()
		for it.Next() {
			got = append(got, it.Event())
		}

		Expect(it.Err()).NotTo(HaveOccurred())
		Expect(got).To(Equal([]*event.Event{events[1], events[2], events[0]}))
		Expect(queue.Len()).To(Equal(3))
	})

	It("should invalidate iterators on change", func() {
		queue.Reschedule(events[0], at(3))
		queue.Reschedule(events[1], at(1))

		it := queue.Iter()
		Expect(it.Next()).To(BeTrue())

		queue.Reschedule(events[2], at(2))

		Expect(it.Next()).To(BeFalse())
		Expect(it.Err()).To(MatchError(event.ErrIteratorInvalidated))
	})

	It("should clear", func() {
		queue.Reschedule(events[0], at(3))
		queue.Reschedule(events[1], at(1))

		queue.Clear()

		Expect(queue.Len()).To(Equal(0))
		Expect(events[0].Scheduled()).To(BeFalse())
		Expect(queue.Contains(events[1])).To(BeFalse())
	})
})
