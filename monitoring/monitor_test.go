package monitoring_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/monitoring"
	"github.com/sarchlab/tempo/timing"
)

type ball struct {
	Name    string
	Bounces int
}

func get(server *httptest.Server, path string) (int, []byte) {
	rsp, err := http.Get(server.URL + path)
	Expect(err).ToNot(HaveOccurred())
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	Expect(err).ToNot(HaveOccurred())

	return rsp.StatusCode, body
}

func getJSON(server *httptest.Server, path string, v any) {
	code, body := get(server, path)
	Expect(code).To(Equal(http.StatusOK))
	Expect(json.Unmarshal(body, v)).To(Succeed())
}

var _ = Describe("Monitor", func() {
	var (
		m      *monitoring.Monitor
		loop   *event.Loop
		target event.TargetID
		server *httptest.Server
	)

	BeforeEach(func() {
		logger, _ := logtest.NewNullLogger()

		m = monitoring.NewMonitor().WithLogger(logger)
		loop = event.NewLoop(event.WithLogger(logger))
		loop.AcceptHook(m)

		target = loop.Targets().Add(&ball{Name: "red"})

		cls := &event.Class{Name: "bounce", Trigger: event.Once}
		for _, at := range []int64{1, 2, 20} {
			_, err := loop.CreateEventFromClass(
				cls, target, timing.FromInt(at), nil)
			Expect(err).ToNot(HaveOccurred())
		}

		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should serve an empty snapshot before the first run", func() {
		_, version := m.Snapshot()
		Expect(version).To(BeZero())

		var now monitoring.TimeView
		getJSON(server, "/api/now", &now)
		Expect(now.Raw).To(BeZero())

		var queue []monitoring.QueuedEvent
		getJSON(server, "/api/queue", &queue)
		Expect(queue).To(BeEmpty())
	})

	It("should publish after each run", func() {
		Expect(loop.RunUntil(timing.FromInt(10))).To(Succeed())

		_, version := m.Snapshot()
		Expect(version).To(Equal(uint64(1)))

		var now monitoring.TimeView
		getJSON(server, "/api/now", &now)
		Expect(timing.VTime(now.Raw)).To(Equal(timing.FromInt(10)))
		Expect(now.Seconds).To(Equal(10.0))

		var queue []monitoring.QueuedEvent
		getJSON(server, "/api/queue", &queue)
		Expect(queue).To(HaveLen(1))
		Expect(queue[0].Class).To(Equal("bounce"))
		Expect(queue[0].Time).To(Equal(timing.FromInt(20).String()))

		var store monitoring.StoreView
		getJSON(server, "/api/store", &store)
		Expect(store.Len).To(Equal(2))
		Expect(store.Recent).To(HaveLen(2))
		Expect(store.Recent[1].Time).To(Equal(timing.FromInt(2)))
	})

	It("should publish when the loop is reset", func() {
		Expect(loop.RunUntil(timing.FromInt(10))).To(Succeed())

		loop.Reset()

		s, version := m.Snapshot()
		Expect(version).To(Equal(uint64(2)))
		Expect(s.Queue).To(BeEmpty())
		Expect(s.Store.Len).To(BeZero())
		Expect(timing.VTime(s.Now.Raw)).To(Equal(timing.TimeZero))
	})

	It("should not see loop changes until the next run", func() {
		Expect(loop.RunUntil(timing.FromInt(10))).To(Succeed())

		loop.Targets().Add(&ball{Name: "blue"})

		s, _ := m.Snapshot()
		Expect(s.Targets).To(HaveLen(1))
	})

	It("should serve targets", func() {
		Expect(loop.RunUntil(timing.FromInt(1))).To(Succeed())

		var view monitoring.TargetView
		getJSON(server, "/api/target/"+strconv.FormatUint(uint64(target), 10), &view)
		Expect(view.Type).To(Equal("*monitoring_test.ball"))
		Expect(view.Name).To(Equal(target.String()))

		code, _ := get(server, "/api/target/12345")
		Expect(code).To(Equal(http.StatusNotFound))

		code, _ = get(server, "/api/target/red")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("frames", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)
		bar.IncrementFinished(1)

		var bars []monitoring.ProgressView
		getJSON(server, "/api/progress", &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("frames"))
		Expect(bars[0].Finished).To(Equal(uint64(3)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)
		getJSON(server, "/api/progress", &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should report resources", func() {
		var rsp map[string]any
		getJSON(server, "/api/resource", &rsp)
		Expect(rsp).To(HaveKey("cpu_percent"))
		Expect(rsp).To(HaveKey("memory_size"))
	})

	It("should reject bad profile durations", func() {
		code, _ := get(server, "/api/profile?duration=forever")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should serve the web page", func() {
		code, body := get(server, "/")
		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should stream snapshots", func() {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/stream"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).
			To(Succeed())

		var s monitoring.Snapshot
		Expect(conn.ReadJSON(&s)).To(Succeed())
		Expect(s.Now.Raw).To(BeZero())

		Expect(loop.RunUntil(timing.FromInt(5))).To(Succeed())

		Expect(conn.ReadJSON(&s)).To(Succeed())
		Expect(timing.VTime(s.Now.Raw)).To(Equal(timing.FromInt(5)))
		Expect(s.Store.Len).To(Equal(2))
	})

	It("should start and stop a server", func() {
		addr, err := m.StartServer()
		Expect(err).ToNot(HaveOccurred())
		Expect(addr).ToNot(BeEmpty())

		_, err = m.StartServer()
		Expect(err).To(MatchError(monitoring.ErrServerRunning))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(m.Close(ctx)).To(Succeed())
	})
})
