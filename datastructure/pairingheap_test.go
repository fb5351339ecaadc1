package datastructure

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type item struct {
	key int
}

func itemLess(a, b *item) bool {
	return a.key < b.key
}

func drain(h *PairingHeap[*item]) []int {
	var keys []int
	for h.Len() > 0 {
		it, err := h.Pop()
		Expect(err).NotTo(HaveOccurred())
		keys = append(keys, it.key)
	}
	return keys
}

var _ = Describe("PairingHeap", func() {
	var heap *PairingHeap[*item]

	BeforeEach(func() {
		heap = NewPairingHeap(itemLess)
	})

	It("should fail to pop an empty heap", func() {
		_, err := heap.Pop()
		Expect(err).To(MatchError(ErrEmptyHeap))

		_, ok := heap.Peek()
		Expect(ok).To(BeFalse())
	})

	It("should pop in order", func() {
		r := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			heap.Push(&item{key: r.Intn(500)})
		}

		Expect(heap.Len()).To(Equal(1000))

		keys := drain(heap)
		Expect(keys).To(HaveLen(1000))
		for i := 1; i < len(keys); i++ {
			Expect(keys[i]).To(BeNumerically(">=", keys[i-1]))
		}
	})

	It("should peek the minimum", func() {
		heap.Push(&item{key: 3})
		h := heap.Push(&item{key: 1})
		heap.Push(&item{key: 2})

		top, ok := heap.Peek()
		Expect(ok).To(BeTrue())
		Expect(top.key).To(Equal(1))

		topHandle, ok := heap.PeekHandle()
		Expect(ok).To(BeTrue())
		Expect(topHandle).To(Equal(h))
		Expect(heap.Len()).To(Equal(3))
	})

	It("should reposition an element after its key decreases", func() {
		items := make([]*item, 10)
		handles := make([]Handle, 10)
		for i := range items {
			items[i] = &item{key: 10 + i}
			handles[i] = heap.Push(items[i])
		}

		heap.Pop()

		items[7].key = 0
		heap.Update(handles[7])

		top, _ := heap.Peek()
		Expect(top).To(BeIdenticalTo(items[7]))
	})

	It("should reposition an element after its key increases", func() {
		items := make([]*item, 10)
		handles := make([]Handle, 10)
		for i := range items {
			items[i] = &item{key: i}
			handles[i] = heap.Push(items[i])
		}

		heap.Pop()
		heap.Push(&item{key: 4})

		items[1].key = 100
		heap.Update(handles[1])
		items[5].key = 50
		heap.Update(handles[5])

		Expect(drain(heap)).To(Equal([]int{2, 3, 4, 4, 6, 7, 8, 9, 50, 100}))
	})

	It("should replace a value through Set", func() {
		heap.Push(&item{key: 1})
		h := heap.Push(&item{key: 2})

		heap.Set(h, &item{key: -1})

		top, _ := heap.Peek()
		Expect(top.key).To(Equal(-1))
	})

	It("should remove an element anywhere in the heap", func() {
		handles := make([]Handle, 20)
		for i := range handles {
			handles[i] = heap.Push(&item{key: i})
		}

		heap.Pop()

		Expect(heap.Remove(handles[0])).To(BeFalse())
		Expect(heap.Remove(handles[10])).To(BeTrue())
		Expect(heap.Remove(handles[10])).To(BeFalse())
		Expect(heap.Remove(handles[1])).To(BeTrue())
		Expect(heap.Remove(handles[19])).To(BeTrue())

		Expect(drain(heap)).To(Equal(
			[]int{2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 15, 16, 17, 18}))
	})

	It("should invalidate handles of popped elements even when slots are reused", func() {
		h1 := heap.Push(&item{key: 1})
		heap.Pop()

		h2 := heap.Push(&item{key: 2})

		Expect(heap.Valid(h1)).To(BeFalse())
		Expect(heap.Valid(h2)).To(BeTrue())
		Expect(heap.Valid(Handle{})).To(BeFalse())

		_, ok := heap.Get(h1)
		Expect(ok).To(BeFalse())

		v, ok := heap.Get(h2)
		Expect(ok).To(BeTrue())
		Expect(v.key).To(Equal(2))

		Expect(func() { heap.Update(h1) }).To(Panic())
	})

	It("should clear all elements", func() {
		h := heap.Push(&item{key: 1})
		heap.Push(&item{key: 2})

		heap.Clear()

		Expect(heap.Len()).To(Equal(0))
		Expect(heap.Valid(h)).To(BeFalse())
		_, err := heap.Pop()
		Expect(err).To(MatchError(ErrEmptyHeap))

		heap.Push(&item{key: 5})
		top, _ := heap.Peek()
		Expect(top.key).To(Equal(5))
	})

	It("should visit every element", func() {
		for i := 0; i < 5; i++ {
			heap.Push(&item{key: i})
		}

		sum := 0
		heap.Each(func(_ Handle, it *item) bool {
			sum += it.key
			return true
		})
		Expect(sum).To(Equal(10))

		visited := 0
		heap.Each(func(Handle, *item) bool {
			visited++
			return false
		})
		Expect(visited).To(Equal(1))
	})

	It("should stay ordered under random updates and removals", func() {
		r := rand.New(rand.NewSource(7))
		live := map[Handle]*item{}

		for i := 0; i < 300; i++ {
			it := &item{key: r.Intn(1000)}
			live[heap.Push(it)] = it
		}

		n := 0
		for h, it := range live {
			switch n % 3 {
			case 0:
				it.key = r.Intn(1000)
				heap.Update(h)
			case 1:
				Expect(heap.Remove(h)).To(BeTrue())
				delete(live, h)
			}
			n++
		}

		Expect(heap.Len()).To(Equal(len(live)))

		keys := drain(heap)
		Expect(keys).To(HaveLen(len(live)))
		for i := 1; i < len(keys); i++ {
			Expect(keys[i]).To(BeNumerically(">=", keys[i-1]))
		}
	})
})
