package booking

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/snapshot"
	"labcal/internal/store"
	"labcal/internal/timeofday"
)

// Hook observes every successful write of the booking collection.
type Hook interface {
	AfterSave(bookings []model.Booking)
}

// Repository keeps the whole booking collection under one store key. Every
// mutation is a read-modify-write of the full list, serialized by mu.
type Repository struct {
	mu    sync.Mutex
	store store.Store
	loc   *time.Location
	hook  Hook
	newID func() string
}

// Option configures a Repository.
type Option func(*Repository)

// WithHook registers h to run after each save.
func WithHook(h Hook) Option {
	return func(r *Repository) { r.hook = h }
}

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// NewRepository returns a Repository over s. Days are calendar dates in loc.
func NewRepository(s store.Store, loc *time.Location, opts ...Option) *Repository {
	if loc == nil {
		loc = time.Local
	}
	r := &Repository{
		store: s,
		loc:   loc,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the timezone whose calendar dates bookings live in.
func (r *Repository) Location() *time.Location {
	return r.loc
}

// Load returns every stored booking sorted as stored. Unreadable data yields
// an empty list; the failure is logged, not returned.
func (r *Repository) Load() []model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loadLocked()
	if err != nil {
		appLog.Error("bookings: load failed, using empty list", err)
		return []model.Booking{}
	}
	return list
}

// Get returns the booking with the given ID.
func (r *Repository) Get(id string) (model.Booking, bool) {
	for _, b := range r.Load() {
		if b.ID == id {
			return b, true
		}
	}
	return model.Booking{}, false
}

// ListDay returns the bookings on day's calendar date, ordered by start time.
func (r *Repository) ListDay(day time.Time) []model.Booking {
	day = day.In(r.loc)
	var out []model.Booking
	for _, b := range r.Load() {
		if model.SameDay(b.Day, day) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Booking) int {
		am, _ := timeofday.ToMinutes(a.StartTime)
		bm, _ := timeofday.ToMinutes(b.StartTime)
		return am - bm
	})
	return out
}

// Create stores d under a fresh ID and returns the stored booking.
func (r *Repository) Create(d model.Draft) (model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loadLocked()
	if err != nil {
		return model.Booking{}, err
	}
	b := r.build(d)
	list = append(list, b)
	if err := r.saveLocked(list, true); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Update merges d over the booking with the given ID. It reports false when
// no such booking exists. The ID is kept and materials only change when
// d.Materials is a Replace.
func (r *Repository) Update(id string, d model.Draft) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loadLocked()
	if err != nil {
		return false, err
	}
	idx := indexOf(list, id)
	if idx < 0 {
		return false, nil
	}
	list[idx] = r.merge(list[idx], d)
	if err := r.saveLocked(list, true); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the booking with the given ID and reports whether one was
// removed. Removal is permanent.
func (r *Repository) Delete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loadLocked()
	if err != nil {
		return false, err
	}
	idx := indexOf(list, id)
	if idx < 0 {
		return false, nil
	}
	list = slices.Delete(list, idx, idx+1)
	if err := r.saveLocked(list, false); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateMaterials replaces only the materials of the booking with the given ID.
func (r *Repository) UpdateMaterials(id string, materials []model.Material) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok, err := r.updateMaterialsLocked(id, materials)
	return ok, err
}

// updateMaterialsLocked stores materials on booking id and returns the
// updated booking.
func (r *Repository) updateMaterialsLocked(id string, materials []model.Material) (model.Booking, bool, error) {
	list, err := r.loadLocked()
	if err != nil {
		return model.Booking{}, false, err
	}
	idx := indexOf(list, id)
	if idx < 0 {
		return model.Booking{}, false, nil
	}
	list[idx].Materials = materials
	updated := list[idx]
	if err := r.saveLocked(list, false); err != nil {
		return model.Booking{}, false, err
	}
	return updated, true, nil
}

// Export renders every stored booking as an export file stamped with now.
func (r *Repository) Export(now time.Time) ([]byte, error) {
	return snapshot.Encode(r.Load(), now)
}

// Import replaces the entire collection with the bookings in data. Nothing
// is merged or checked against existing bookings. Any failure leaves the
// store untouched and yields false.
func (r *Repository) Import(data []byte) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			appLog.Error("bookings: import panicked", fmt.Errorf("%v", p))
			ok = false
		}
	}()

	list, err := snapshot.Decode(data, r.loc)
	if err != nil {
		appLog.Error("bookings: import rejected", err)
		return false
	}
	encoded, err := snapshot.EncodeList(list)
	if err != nil {
		appLog.Error("bookings: import encode failed", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Set(store.KeyBookings, encoded); err != nil {
		appLog.Error("bookings: import write failed", err)
		return false
	}
	appLog.Info("bookings: import completed", "count", len(list))
	return true
}

// loadLocked reads the collection. A missing key is an empty collection;
// unreadable data is an error so that writers never overwrite it blindly.
func (r *Repository) loadLocked() ([]model.Booking, error) {
	data, err := r.store.Get(store.KeyBookings)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.Booking{}, nil
		}
		return nil, fmt.Errorf("bookings: read: %w", err)
	}
	list, err := snapshot.DecodeList(data, r.loc)
	if err != nil {
		return nil, fmt.Errorf("bookings: decode: %w", err)
	}
	return list, nil
}

func (r *Repository) saveLocked(list []model.Booking, sortByDay bool) error {
	if sortByDay {
		slices.SortStableFunc(list, func(a, b model.Booking) int {
			return a.Day.Compare(b.Day)
		})
	}
	data, err := snapshot.EncodeList(list)
	if err != nil {
		return fmt.Errorf("bookings: encode: %w", err)
	}
	if err := r.store.Set(store.KeyBookings, data); err != nil {
		return fmt.Errorf("bookings: write: %w", err)
	}
	if r.hook != nil {
		r.hook.AfterSave(slices.Clone(list))
	}
	return nil
}

// build turns a draft into a new booking with a fresh ID.
func (r *Repository) build(d model.Draft) model.Booking {
	return r.merge(model.Booking{ID: r.newID()}, d)
}

func (r *Repository) merge(prev model.Booking, d model.Draft) model.Booking {
	b := d.Apply(prev)
	b.Day = model.DateOf(b.Day.In(r.loc))
	if dur, err := timeofday.Duration(b.StartTime, b.EndTime); err == nil {
		b.Duration = dur
	}
	return b
}

func indexOf(list []model.Booking, id string) int {
	return slices.IndexFunc(list, func(b model.Booking) bool { return b.ID == id })
}
