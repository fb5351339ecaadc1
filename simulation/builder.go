package simulation

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tempo/datarecording"
	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/idgen"
	"github.com/sarchlab/tempo/job"
	"github.com/sarchlab/tempo/monitoring"
)

// ErrMonitorPortWithoutMonitor is returned when a monitor port is set but
// the monitor is off.
var ErrMonitorPortWithoutMonitor = errors.New(
	"simulation: monitor port cannot be set when monitoring is disabled")

// Builder can be used to build a simulation session.
type Builder struct {
	strict         bool
	recording      bool
	outputFileName string
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	maxSameTime    int
	jobWorkers     int
	log            logrus.FieldLogger
}

// MakeBuilder creates a new builder. Recording is on and monitoring is off by
// default.
func MakeBuilder() Builder {
	return Builder{
		recording:  true,
		jobWorkers: runtime.NumCPU(),
	}
}

// WithStrict makes events on destroyed targets panic instead of being
// dropped.
func (b Builder) WithStrict() Builder {
	b.strict = true
	return b
}

// WithoutRecording disables the SQLite recording of fired events.
func (b Builder) WithoutRecording() Builder {
	b.recording = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitor turns on the monitoring server.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page once the server is up.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithMaxSameTimeFirings sets how many events may fire at one time point
// before the loop reports it is not settling.
func (b Builder) WithMaxSameTimeFirings(n int) Builder {
	b.maxSameTime = n
	return b
}

// WithJobWorkers sets the number of concurrent background jobs.
func (b Builder) WithJobWorkers(n int) Builder {
	b.jobWorkers = n
	return b
}

// WithLogger sets the logger of the session and its loop.
func (b Builder) WithLogger(log logrus.FieldLogger) Builder {
	b.log = log
	return b
}

func (b Builder) parametersMustBeValid() error {
	if !b.monitorOn && b.monitorPort != 0 {
		return ErrMonitorPortWithoutMonitor
	}

	return nil
}

// Build builds the session.
func (b Builder) Build() (*Session, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Session{
		id: idgen.NewSessionName("tempo"),
	}

	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	s.log = log.WithField("session", s.id)

	opts := []event.Option{
		event.WithLogger(s.log),
		event.WithStrict(b.strict),
	}
	if b.maxSameTime > 0 {
		opts = append(opts, event.WithMaxSameTimeFirings(b.maxSameTime))
	}
	s.loop = event.NewLoop(opts...)

	s.jobs = job.NewManager(b.jobWorkers)

	if b.recording {
		if err := s.startRecording(b.outputFileName); err != nil {
			s.jobs.Close()
			return nil, err
		}
	}

	if b.monitorOn {
		if err := s.startMonitor(b.monitorPort, b.openBrowser); err != nil {
			_ = s.Terminate()
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"recording": s.outputFile,
		"workers":   s.jobs.Workers(),
	}).Info("session started")

	return s, nil
}

func (s *Session) startRecording(outputFileName string) error {
	path := outputFileName
	if path == "" {
		path = s.id
	}

	recorder, err := datarecording.New(path)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	events, err := datarecording.NewEventRecorder(recorder, s.log)
	if err != nil {
		_ = recorder.Close()
		return fmt.Errorf("simulation: %w", err)
	}

	s.recorder = recorder
	s.events = events
	s.outputFile = recordingFile(path)
	s.loop.AcceptHook(events)

	return nil
}

func (s *Session) startMonitor(port int, openBrowser bool) error {
	s.monitor = monitoring.NewMonitor().
		WithLogger(s.log).
		WithPortNumber(port).
		WithBrowser(openBrowser)
	s.loop.AcceptHook(s.monitor)

	addr, err := s.monitor.StartServer()
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	s.monitorAddr = addr

	return nil
}
