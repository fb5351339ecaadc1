package simulation_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/tempo/datarecording"
	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/job"
	"github.com/sarchlab/tempo/simulation"
	"github.com/sarchlab/tempo/timing"
)

var _ = Describe("Session", func() {
	var (
		logs    *logtest.Hook
		builder simulation.Builder
		session *simulation.Session
	)

	BeforeEach(func() {
		logger, hook := logtest.NewNullLogger()
		logs = hook
		builder = simulation.MakeBuilder().
			WithLogger(logger).
			WithJobWorkers(2)
	})

	AfterEach(func() {
		if session != nil {
			Expect(session.Terminate()).To(Succeed())
			session = nil
		}
	})

	It("should run without recording", func() {
		var err error
		session, err = builder.WithoutRecording().Build()
		Expect(err).ToNot(HaveOccurred())

		Expect(session.ID()).To(HavePrefix("tempo_"))
		Expect(session.Recorder()).To(BeNil())
		Expect(session.OutputFile()).To(BeEmpty())
		Expect(session.Monitor()).To(BeNil())
		Expect(session.Jobs().Workers()).To(Equal(2))
		Expect(session.Targets()).To(BeIdenticalTo(session.Loop().Targets()))
	})

	It("should record fired events", func() {
		out := filepath.Join(GinkgoT().TempDir(), "run")

		var err error
		session, err = builder.WithOutputFileName(out).Build()
		Expect(err).ToNot(HaveOccurred())
		Expect(session.OutputFile()).To(Equal(out + ".sqlite3"))

		loop := session.Loop()
		target := session.Targets().Add("ball")
		cls := &event.Class{Name: "tick", Trigger: event.Once}
		for _, at := range []int64{2, 1} {
			_, err := loop.CreateEventFromClass(cls, target, timing.FromInt(at), nil)
			Expect(err).ToNot(HaveOccurred())
		}
		Expect(loop.RunUntil(timing.FromInt(3))).To(Succeed())

		Expect(session.Terminate()).To(Succeed())
		Expect(session.Terminate()).To(Succeed())

		reader, err := datarecording.NewReader(session.OutputFile())
		Expect(err).ToNot(HaveOccurred())
		defer reader.Close()

		rows, err := reader.ReadFiredEvents(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].RunID).To(Equal(session.EventRecorder().RunID()))
		Expect(timing.VTime(rows[0].TimeRaw)).To(Equal(timing.FromInt(1)))

		session = nil
	})

	It("should refuse to overwrite a recording", func() {
		out := filepath.Join(GinkgoT().TempDir(), "taken.sqlite3")
		Expect(os.WriteFile(out, nil, 0o600)).To(Succeed())

		_, err := builder.WithOutputFileName(out).Build()
		Expect(err).To(MatchError(datarecording.ErrFileExists))
	})

	It("should refuse a monitor port without a monitor", func() {
		_, err := builder.WithoutRecording().WithMonitorPort(8080).Build()
		Expect(err).To(MatchError(simulation.ErrMonitorPortWithoutMonitor))
	})

	It("should start a monitor", func() {
		var err error
		session, err = builder.WithoutRecording().WithMonitor().Build()
		Expect(err).ToNot(HaveOccurred())

		Expect(session.Monitor()).ToNot(BeNil())
		Expect(session.MonitorAddr()).ToNot(BeEmpty())

		Expect(session.Loop().RunUntil(timing.FromInt(4))).To(Succeed())

		snap, version := session.Monitor().Snapshot()
		Expect(version).To(Equal(uint64(1)))
		Expect(timing.VTime(snap.Now.Raw)).To(Equal(timing.FromInt(4)))
	})

	It("should pass loop options", func() {
		var err error
		session, err = builder.WithoutRecording().
			WithStrict().
			WithMaxSameTimeFirings(3).
			Build()
		Expect(err).ToNot(HaveOccurred())

		loop := session.Loop()
		cls := &event.Class{
			Name:    "spin",
			Trigger: event.Repeat,
			Predict: func(inv *event.Invocation) timing.VTime { return inv.At },
		}
		target := session.Targets().Add("top")
		_, err = loop.CreateEventFromClass(cls, target, timing.FromInt(1), nil)
		Expect(err).ToNot(HaveOccurred())

		Expect(loop.RunUntil(timing.FromInt(2))).
			To(MatchError(event.ErrNotSettling))
	})

	It("should close jobs on terminate", func() {
		var err error
		session, err = builder.WithoutRecording().Build()
		Expect(err).ToNot(HaveOccurred())

		jobs := session.Jobs()
		Expect(session.Terminate()).To(Succeed())
		session = nil

		f := job.Submit(context.Background(), jobs, func(context.Context) (int, error) {
			return 1, nil
		})
		_, err = f.Wait(context.Background())
		Expect(err).To(MatchError(job.ErrClosed))
	})

	It("should log session start and stop", func() {
		var err error
		session, err = builder.WithoutRecording().Build()
		Expect(err).ToNot(HaveOccurred())
		Expect(session.Terminate()).To(Succeed())
		session = nil

		var messages []string
		for _, e := range logs.AllEntries() {
			messages = append(messages, e.Message)
		}
		Expect(messages).To(ContainElements("session started", "session stopped"))
	})
})
