package event_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tempo/event"
)

var _ = Describe("Store", func() {
	var loop *event.Loop

	BeforeEach(func() {
		loop = event.NewLoop()
		target := loop.Targets().Add("target")
		loop.AddClass(&event.Class{Name: "once", Trigger: event.Once})

		for n := int64(1); n <= 4; n++ {
			loop.CreateEvent("once", target, at(n), nil)
		}

		Expect(loop.RunUntil(at(10))).To(Succeed())
	})

	It("should return copies of the records", func() {
		records := loop.Store().Records()
		records[0].Class = "changed"

		Expect(loop.Store().At(0).Class).To(Equal("once"))
	})

	It("should return the records after a sequence number", func() {
		since := loop.Store().Since(2)

		Expect(since).To(HaveLen(2))
		Expect(since[0].Seq).To(Equal(uint64(3)))
		Expect(loop.Store().Since(4)).To(BeEmpty())
		Expect(loop.Store().Since(0)).To(HaveLen(4))
	})

	It("should iterate over a fixed view", func() {
		it := loop.Store().Iter()

		target := loop.Targets().Add("next")
		loop.CreateEvent("once", target, at(11), nil)
		Expect(loop.RunUntil(at(11))).To(Succeed())

		n := 0
		for it.Next() {
			n++
			Expect(it.Record().Seq).To(Equal(uint64(n)))
		}
		Expect(n).To(Equal(4))
		Expect(loop.Store().Len()).To(Equal(5))
	})
})
