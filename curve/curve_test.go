package curve_test

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tempo/curve"
	"github.com/sarchlab/tempo/fixed"
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/timing"
)

func recordChanges(h hooking.Hookable) *[]timing.VTime {
	changes := &[]timing.VTime{}
	h.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
		Expect(ctx.Pos).To(BeIdenticalTo(curve.HookPosChanged))
		Expect(ctx.Domain).To(BeIdenticalTo(h))
		*changes = append(*changes, ctx.Detail.(curve.Change).At)
	}))
	return changes
}

var _ = Describe("Discrete", func() {
	var c *curve.Discrete[int]

	BeforeEach(func() {
		c = curve.NewDiscrete(-1)
	})

	It("should return the default before the first keyframe", func() {
		Expect(c.Get(at(100))).To(Equal(-1))

		c.Set(at(5), 1)

		Expect(c.Get(at(4))).To(Equal(-1))
		Expect(c.Default()).To(Equal(-1))
	})

	It("should return what was just set", func() {
		for _, n := range []int64{3, 1, 7, 3} {
			c.Set(at(n), int(n)*10)
			Expect(c.Get(at(n))).To(Equal(int(n) * 10))
		}
	})

	It("should step between keyframes", func() {
		c.Set(at(0), 10)
		c.Set(at(5), 20)

		Expect(c.Get(at(3))).To(Equal(10))
		Expect(c.Get(at(5) - timing.Epsilon)).To(Equal(10))
		Expect(c.Get(at(5))).To(Equal(20))
		Expect(c.Get(at(7))).To(Equal(20))
	})

	It("should answer queries in any order", func() {
		for n := int64(0); n < 10; n++ {
			c.Set(at(n), int(n))
		}

		for _, n := range []int64{9, 0, 5, 6, 2, 2, 8, 1} {
			Expect(c.Get(at(n) + timing.Epsilon)).To(Equal(int(n)))
		}
	})

	It("should allow writes into the past", func() {
		c.Set(at(10), 1)
		c.Get(at(11))

		c.Set(at(2), 2)

		Expect(c.Get(at(5))).To(Equal(2))
		Expect(c.Get(at(11))).To(Equal(1))
		Expect(c.Len()).To(Equal(2))
	})

	It("should replace the future with SetLast", func() {
		c.Set(at(1), 1)
		c.Set(at(5), 5)
		c.Set(at(9), 9)

		c.SetLast(at(3), 3)

		Expect(c.Get(at(100))).To(Equal(3))
		Expect(c.Len()).To(Equal(2))
	})

	It("should report frames", func() {
		t, v := c.Frame(at(1))
		Expect(t).To(Equal(timing.TimeMin))
		Expect(v).To(Equal(-1))

		c.Set(at(2), 20)
		c.Set(at(4), 40)

		t, v = c.Frame(at(3))
		Expect(t).To(Equal(at(2)))
		Expect(v).To(Equal(20))

		t, v, ok := c.NextFrame(at(2))
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(at(4)))
		Expect(v).To(Equal(40))

		t, _, ok = c.NextFrame(at(4))
		Expect(ok).To(BeFalse())
		Expect(t).To(Equal(timing.TimeMax))
	})

	It("should notify hooks on every mutation", func() {
		changes := recordChanges(c)

		c.Set(at(1), 1)
		c.Set(at(5), 5)
		c.SetLast(at(3), 3)
		c.EraseAfter(at(10))
		c.EraseAfter(at(0))

		Expect(*changes).To(Equal([]timing.VTime{at(1), at(5), at(3), at(0)}))
	})
})

var _ = Describe("Continuous", func() {
	It("should interpolate integers linearly", func() {
		c := curve.NewLinearInt64(0)
		c.Set(at(0), 0)
		c.Set(at(10), 100)

		Expect(c.Get(at(0))).To(Equal(int64(0)))
		Expect(c.Get(at(5))).To(Equal(int64(50)))
		Expect(c.Get(at(10))).To(Equal(int64(100)))
		Expect(c.Get(timing.FromRatio(5, 2))).To(Equal(int64(25)))
	})

	It("should hold the last value and return the default before the first", func() {
		c := curve.NewLinearInt64(-7)
		c.Set(at(2), 4)
		c.Set(at(4), 8)

		Expect(c.Get(at(1))).To(Equal(int64(-7)))
		Expect(c.Get(at(40))).To(Equal(int64(8)))
	})

	It("should be monotonic between monotonic keyframes", func() {
		c := curve.NewContinuous(fixed.Zero, curve.LerpFixed)
		c.Set(at(0), fixed.FromInt(3))
		c.Set(at(1), fixed.FromInt(1000))
		c.Set(at(3), fixed.FromInt(1001))

		prev := c.Get(at(0))
		for t := at(0); t <= at(3); t += timing.FromRatio(1, 64) {
			v := c.Get(t)
			Expect(v).To(BeNumerically(">=", prev))
			prev = v
		}
		Expect(prev).To(Equal(fixed.FromInt(1001)))
	})

	It("should interpolate decimals", func() {
		c := curve.NewContinuous(decimal.Zero, curve.LerpDecimal)
		c.Set(at(0), decimal.NewFromInt(1))
		c.Set(at(4), decimal.NewFromInt(2))

		Expect(c.Get(at(1)).Equal(decimal.RequireFromString("1.25"))).To(BeTrue())
		Expect(c.Get(at(2)).Equal(decimal.RequireFromString("1.5"))).To(BeTrue())
	})

	It("should step with the Step policy", func() {
		c := curve.NewContinuous(0, curve.Step[int])
		c.Set(at(0), 1)
		c.Set(at(2), 3)

		Expect(c.Get(at(1))).To(Equal(1))
		Expect(c.Get(at(2))).To(Equal(3))
	})

	It("should reflect a correction with SetLast", func() {
		c := curve.NewLinearInt64(0)
		c.Set(at(0), 0)
		c.Set(at(10), 100)
		changes := recordChanges(c)

		c.SetLast(at(5), 0)

		Expect(c.Get(at(7))).To(Equal(int64(0)))
		Expect(*changes).To(Equal([]timing.VTime{at(5)}))
	})

	It("should iterate between times", func() {
		c := curve.NewLinearInt64(0)
		for n := int64(0); n < 5; n++ {
			c.Set(at(n), n)
		}

		var sum int64
		it := c.IterBetween(at(1), at(3))
		for it.Next() {
			sum += it.Value()
		}

		Expect(it.Err()).NotTo(HaveOccurred())
		Expect(sum).To(Equal(int64(6)))
	})
})
