package event_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tempo/event"
)

var _ = Describe("Targets", func() {
	var targets *event.Targets

	BeforeEach(func() {
		targets = event.NewTargets()
	})

	It("should store and return entities", func() {
		a := targets.Add("a")
		b := targets.Add("b")

		Expect(a).NotTo(Equal(b))
		Expect(a).NotTo(Equal(event.NoTarget))
		Expect(targets.Len()).To(Equal(2))

		v, ok := targets.Get(b)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("b"))

		s, ok := event.GetAs[string](targets, a)
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal("a"))

		_, ok = event.GetAs[int](targets, a)
		Expect(ok).To(BeFalse())
	})

	It("should not resolve destroyed entities even if the slot is reused", func() {
		a := targets.Add("a")
		Expect(targets.Destroy(a)).To(BeTrue())
		Expect(targets.Destroy(a)).To(BeFalse())

		c := targets.Add("c")

		_, ok := targets.Get(a)
		Expect(ok).To(BeFalse())
		Expect(targets.Contains(a)).To(BeFalse())
		Expect(targets.Contains(c)).To(BeTrue())
		Expect(targets.Len()).To(Equal(1))
	})

	It("should not resolve the zero id", func() {
		targets.Add("a")

		_, ok := targets.Get(event.NoTarget)
		Expect(ok).To(BeFalse())
	})

	It("should visit entities in slot order", func() {
		targets.Add(1)
		b := targets.Add(2)
		targets.Add(3)
		targets.Destroy(b)

		var got []any
		targets.Each(func(_ event.TargetID, entity any) bool {
			got = append(got, entity)
			return true
		})

		Expect(got).To(Equal([]any{1, 3}))
	})
})

var _ = Describe("ParamMap", func() {
	params := event.ParamMap{"speed": 3, "name": "ball"}

	It("should return typed values", func() {
		Expect(event.Get(params, "speed", 0)).To(Equal(3))
		Expect(event.Get(params, "name", "")).To(Equal("ball"))
	})

	It("should fall back to the default", func() {
		Expect(event.Get(params, "missing", 7)).To(Equal(7))
		Expect(event.Get(params, "name", 7)).To(Equal(7))
	})

	It("should check keys and types", func() {
		Expect(params.Contains("speed")).To(BeTrue())
		Expect(params.Contains("missing")).To(BeFalse())
		Expect(event.Is[int](params, "speed")).To(BeTrue())
		Expect(event.Is[string](params, "speed")).To(BeFalse())
		Expect(event.Is[int](params, "missing")).To(BeFalse())
	})
})
