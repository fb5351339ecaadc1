// Package simulation wires a loop with its recording, monitoring and job
// services.
package simulation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tempo/datarecording"
	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/job"
	"github.com/sarchlab/tempo/monitoring"
)

const shutdownTimeout = 5 * time.Second

// A Session holds the services of one simulation run.
type Session struct {
	id  string
	log logrus.FieldLogger

	loop *event.Loop
	jobs *job.Manager

	recorder   datarecording.DataRecorder
	events     *datarecording.EventRecorder
	outputFile string

	monitor     *monitoring.Monitor
	monitorAddr string

	terminated bool
}

// ID returns the unique id of the session.
func (s *Session) ID() string {
	return s.id
}

// Logger returns the session logger.
func (s *Session) Logger() logrus.FieldLogger {
	return s.log
}

// Loop returns the event loop.
func (s *Session) Loop() *event.Loop {
	return s.loop
}

// Targets returns the target arena of the loop.
func (s *Session) Targets() *event.Targets {
	return s.loop.Targets()
}

// Jobs returns the background job manager.
func (s *Session) Jobs() *job.Manager {
	return s.jobs
}

// Recorder returns the data recorder, or nil when recording is off.
func (s *Session) Recorder() datarecording.DataRecorder {
	return s.recorder
}

// EventRecorder returns the hook that records fired events, or nil when
// recording is off.
func (s *Session) EventRecorder() *datarecording.EventRecorder {
	return s.events
}

// OutputFile returns the path of the recording file, or "" when recording is
// off.
func (s *Session) OutputFile() string {
	return s.outputFile
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Session) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorAddr returns the address the monitor listens on.
func (s *Session) MonitorAddr() string {
	return s.monitorAddr
}

// Terminate stops the monitor, waits for running jobs and closes the
// recording. Calling it again does nothing.
func (s *Session) Terminate() error {
	if s.terminated {
		return nil
	}

	s.terminated = true

	var errs []error

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, s.monitor.Close(ctx))
		cancel()
	}

	s.jobs.Close()

	if s.recorder != nil {
		errs = append(errs, s.recorder.Close(), s.events.Err())
	}

	s.log.WithField("fired", s.loop.Store().Len()).Info("session stopped")

	return errors.Join(errs...)
}

func recordingFile(path string) string {
	if strings.HasSuffix(path, ".sqlite3") {
		return path
	}

	return path + ".sqlite3"
}
