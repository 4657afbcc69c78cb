package notification

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
)

// Payload is the wire contract of the notification endpoints.
type Payload struct {
	Vendor    string   `json:"vendor"`
	Route     string   `json:"route"`
	Email     string   `json:"email"`
	Kind      string   `json:"kind"`
	Time      string   `json:"time"`
	Lodging   string   `json:"lodging"`
	Notes     string   `json:"notes"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Dispatcher delivers fire-and-forget notifications for committed attendance
// events: a confirmation per durable commit and a late-arrival alert for late
// check-ins. Failures are logged, never retried and never surfaced, so they
// structurally cannot affect a recorded event's status.
type Dispatcher interface {
	DispatchCommitted(v vendor.Vendor, event attendance.Event)
	Stop()
}

// Config holds dispatcher configuration
type Config struct {
	ConfirmationURL string
	LateArrivalURL  string
	Timeout         time.Duration // default: 10 seconds
	WorkerCount     int           // default: 2
	QueueSize       int           // default: 256
	TimeLocation    *time.Location
}

type task struct {
	url     string
	payload Payload
}

type dispatcher struct {
	config Config
	client *http.Client

	queue  chan task
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewDispatcher creates a dispatcher with background workers.
func NewDispatcher(cfg Config) Dispatcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 256
	}
	if cfg.TimeLocation == nil {
		cfg.TimeLocation = time.UTC
	}

	d := &dispatcher{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan task, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	slog.Info("Notification dispatcher started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)

	return d
}

// DispatchCommitted implements Dispatcher.
func (d *dispatcher) DispatchCommitted(v vendor.Vendor, event attendance.Event) {
	payload := Payload{
		Vendor:    v.Name,
		Route:     v.Route,
		Email:     v.Email,
		Kind:      string(event.Kind),
		Time:      event.Timestamp.In(d.config.TimeLocation).Format("15:04:05 02/01/2006"),
		Lodging:   event.Lodging,
		Notes:     "Sin notas",
		Latitude:  event.Latitude,
		Longitude: event.Longitude,
	}
	if event.Notes != nil && *event.Notes != "" {
		payload.Notes = *event.Notes
	}

	d.enqueue(d.config.ConfirmationURL, payload)
	if event.IsLate {
		d.enqueue(d.config.LateArrivalURL, payload)
	}
}

func (d *dispatcher) enqueue(url string, payload Payload) {
	if url == "" {
		return
	}
	select {
	case d.queue <- task{url: url, payload: payload}:
	default:
		slog.Warn("Notification queue full, dropping task", "url", url, "vendor", payload.Vendor)
	}
}

// Stop drains queued tasks and stops the workers.
func (d *dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	slog.Info("Notification dispatcher stopped")
}

func (d *dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case t := <-d.queue:
			d.deliver(t)
		case <-d.stopCh:
			// Drain what is already queued before exiting.
			for {
				select {
				case t := <-d.queue:
					d.deliver(t)
				default:
					return
				}
			}
		}
	}
}

func (d *dispatcher) deliver(t task) {
	body, err := json.Marshal(t.payload)
	if err != nil {
		slog.Error("Failed to marshal notification payload", "error", err)
		return
	}

	resp, err := d.client.Post(t.url, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Error("Failed to deliver notification", "url", t.url, "vendor", t.payload.Vendor, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Notification endpoint rejected payload", "url", t.url, "status", resp.StatusCode, "vendor", t.payload.Vendor)
		return
	}

	slog.Debug("Notification delivered", "url", t.url, "vendor", t.payload.Vendor, "kind", t.payload.Kind)
}
