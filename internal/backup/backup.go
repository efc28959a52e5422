// Package backup writes dated snapshot files of the booking set.
//
// Two triggers exist: the repository calls AfterSave after every persist,
// which takes at most one backup per calendar day once enough bookings are
// stored, and an optional cron schedule that snapshots unconditionally.
package backup

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/snapshot"
	"labcal/internal/store"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures a Manager.
type Options struct {
	// Dir receives snapshot files. Empty disables file output; the daily
	// marker is still maintained.
	Dir string
	// MinBookings is the smallest collection size that triggers a backup.
	MinBookings int
	Location    *time.Location
	Clock       Clock
}

// Manager implements the repository's post-save hook.
type Manager struct {
	mu    sync.Mutex
	store store.Store
	opts  Options
	cron  *cron.Cron
}

// New returns a Manager that records its daily marker in s.
func New(s store.Store, opts Options) *Manager {
	if opts.MinBookings <= 0 {
		opts.MinBookings = 3
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Manager{store: s, opts: opts}
}

func (m *Manager) today() time.Time {
	return m.opts.Clock.Now().In(m.opts.Location)
}

// AfterSave takes the day's backup when the collection has reached
// MinBookings and no backup was recorded today. Failures are logged only.
func (m *Manager) AfterSave(bookings []model.Booking) {
	if len(bookings) < m.opts.MinBookings {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.today()
	today := now.Format(model.DayLayout)

	last, err := m.store.Get(store.KeyLastBackup)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		appLog.Error("backup: read marker failed", err)
		return
	}
	if strings.TrimSpace(string(last)) == today {
		return
	}

	if err := m.store.Set(store.KeyLastBackup, []byte(today)); err != nil {
		appLog.Error("backup: write marker failed", err)
		return
	}
	if _, err := m.write(bookings, now); err != nil {
		appLog.Error("backup: snapshot failed", err, "count", len(bookings))
		return
	}
	appLog.Info("automatic backup taken", "date", today, "count", len(bookings))
}

// Snapshot writes the snapshot file for bookings regardless of the daily
// marker and returns its path. It returns "" when no directory is set.
func (m *Manager) Snapshot(bookings []model.Booking) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(bookings, m.today())
}

func (m *Manager) write(bookings []model.Booking, now time.Time) (string, error) {
	if m.opts.Dir == "" {
		return "", nil
	}
	data, err := snapshot.Encode(bookings, now)
	if err != nil {
		return "", err
	}
	path := filepath.Join(m.opts.Dir, snapshot.FileName(now))
	if err := store.WriteFileAtomic(path, data, ".labcal-backup-*.tmp"); err != nil {
		return "", err
	}
	return path, nil
}

// Schedule starts a cron job that snapshots source() on spec (standard
// five-field syntax). Call Stop to end it.
func (m *Manager) Schedule(spec string, source func() []model.Booking) error {
	c := cron.New(cron.WithLocation(m.opts.Location))
	_, err := c.AddFunc(spec, func() {
		bookings := source()
		path, err := m.Snapshot(bookings)
		if err != nil {
			appLog.Error("scheduled backup failed", err)
			return
		}
		appLog.Info("scheduled backup written", "path", path, "count", len(bookings))
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	c.Start()
	appLog.Info("backup schedule started", "cron", spec)
	return nil
}

// Stop halts the cron schedule, if any, and waits for a running job.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
