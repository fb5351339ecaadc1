// Package monitoring serves a read-only view of a running loop over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/idgen"
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/monitoring/web"
)

// ErrServerRunning is returned when StartServer is called twice.
var ErrServerRunning = errors.New("monitoring: server already running")

// Monitor publishes snapshots of a loop and serves them over HTTP. The loop
// is only read from the hook, on the simulation goroutine. HTTP handlers
// read the last published snapshot.
type Monitor struct {
	portNumber  int
	openBrowser bool
	log         logrus.FieldLogger
	ids         idgen.Generator

	lock     sync.RWMutex
	snapshot Snapshot
	version  uint64
	changed  chan struct{}

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		log:     logrus.StandardLogger(),
		ids:     idgen.New(),
		changed: make(chan struct{}),
		snapshot: Snapshot{
			Queue: []QueuedEvent{},
		},
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.log.Warnf("port %d is not allowed for the monitoring server, "+
			"using a random port instead", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitoring page.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(log logrus.FieldLogger) *Monitor {
	m.log = log
	return m
}

// Func implements hooking.Hook. The monitor publishes a snapshot whenever
// the loop finishes a RunUntil or is reset.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	if ctx.Pos != event.HookPosAfterRun && ctx.Pos != event.HookPosReset {
		return
	}

	loop, ok := ctx.Domain.(*event.Loop)
	if !ok {
		return
	}

	m.Publish(Capture(loop))
}

// Publish replaces the current snapshot and wakes up stream listeners.
func (m *Monitor) Publish(s Snapshot) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.snapshot = s
	m.version++

	close(m.changed)
	m.changed = make(chan struct{})
}

// Snapshot returns the last published snapshot and its version. Version 0
// means nothing was published yet.
func (m *Monitor) Snapshot() (Snapshot, uint64) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.snapshot, m.version
}

func (m *Monitor) waitChange() <-chan struct{} {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.changed
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        fmt.Sprintf("%d", m.ids.Generate()),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the HTTP routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/queue", m.queue)
	r.HandleFunc("/api/store", m.store)
	r.HandleFunc("/api/target/{id}", m.target)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/stream", m.stream)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the address it
// listens on.
func (m *Monitor) StartServer() (string, error) {
	if m.server != nil {
		return "", ErrServerRunning
	}

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("monitoring: listen: %w", err)
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.log.WithField("url", url).Info("monitoring simulation")

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("monitoring server stopped")
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.log.WithError(err).Warn("cannot open browser")
		}
	}

	return listener.Addr().String(), nil
}

// Close stops the server.
func (m *Monitor) Close(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	err := m.server.Shutdown(ctx)
	m.server = nil

	return err
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.WithError(err).Error("monitoring: encode response")
		http.Error(w, "failed to encode", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		m.log.WithError(err).Debug("monitoring: write response")
	}
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	s, _ := m.Snapshot()
	m.writeJSON(w, s.Now)
}

func (m *Monitor) queue(w http.ResponseWriter, _ *http.Request) {
	s, _ := m.Snapshot()
	m.writeJSON(w, s.Queue)
}

func (m *Monitor) store(w http.ResponseWriter, _ *http.Request) {
	s, _ := m.Snapshot()
	m.writeJSON(w, s.Store)
}

func (m *Monitor) target(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return
	}

	s, _ := m.Snapshot()

	t, ok := s.target(id)
	if !ok {
		http.Error(w, "target not found", http.StatusNotFound)
		return
	}

	m.writeJSON(w, t)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]ProgressView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.View())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, views)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

const maxProfileDuration = 30 * time.Second

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second

	if v := r.URL.Query().Get("duration"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 || d > maxProfileDuration {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}

		duration = d
	}

	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	select {
	case <-time.After(duration):
	case <-r.Context().Done():
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, prof)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// stream sends the current snapshot and then every newly published one.
func (m *Monitor) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.WithError(err).Debug("monitoring: upgrade failed")
		return
	}
	defer conn.Close()

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		changed := m.waitChange()
		s, _ := m.Snapshot()

		if err := conn.WriteJSON(s); err != nil {
			return
		}

		select {
		case <-changed:
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
