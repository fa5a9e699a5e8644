// Package location owns the "current form location" of a report draft
// and arbitrates between the three acquisition paths: GPS fix, map tap
// and search-result pick.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YnTheNerd/cleanspot/internal/models"
)

// MsgLocationFailed is shown when a GPS fix cannot be acquired; the
// user can still select manually on the map.
const MsgLocationFailed = "Impossible d'obtenir votre position. Vous pouvez sélectionner manuellement sur la carte."

var (
	// ErrSuperseded is returned when an acquisition completes after a
	// newer one started; its result has been discarded.
	ErrSuperseded = errors.New("location acquisition superseded")

	// ErrInvalidCoordinate rejects out-of-range or non-finite input.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// GPSProvider abstracts the device positioning service. Implementations
// must honor context cancellation; the flow bounds every call with a
// timeout so a dead provider cannot hang the screen.
type GPSProvider interface {
	CurrentPosition(ctx context.Context) (coord models.Coordinate, accuracyMeters float64, err error)
}

// AddressResolver reverse-geocodes a coordinate into a display address.
// *geocode.Client satisfies this.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, lat, lng float64) (string, error)
}

// State of the flow: no selection, an acquisition in flight, or a
// committed selection.
type State int

const (
	StateEmpty State = iota
	StatePending
	StateSelected
)

// Flow enforces single-source-of-truth semantics: beginning an
// acquisition from any source clears the current selection and bumps a
// generation token. The acquisition holding the live token wins;
// completions carrying a stale token are discarded, so a slow GPS fix
// can never overwrite a later map tap.
type Flow struct {
	gps      GPSProvider
	resolver AddressResolver
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	gen     uint64
	state   State
	pending models.LocationSource
	current *models.LocationSelection
}

// Option configures a Flow.
type Option func(*Flow)

// WithGPSTimeout bounds GPS acquisition; default 10s.
func WithGPSTimeout(d time.Duration) Option {
	return func(f *Flow) { f.timeout = d }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func NewFlow(gps GPSProvider, resolver AddressResolver, opts ...Option) *Flow {
	f := &Flow{
		gps:      gps,
		resolver: resolver,
		timeout:  10 * time.Second,
		now:      time.Now,
		state:    StateEmpty,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AcquireGPS clears the current selection and requests a device fix.
// Failure leaves the flow empty; the caller surfaces MsgLocationFailed
// and offers the map as the manual alternative.
func (f *Flow) AcquireGPS(ctx context.Context) (*models.LocationSelection, error) {
	gen := f.begin(models.SourceGPS)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	coord, accuracy, err := f.gps.CurrentPosition(ctx)
	if err != nil {
		f.fail(gen)
		return nil, fmt.Errorf("gps fix: %w", err)
	}
	if !coord.Valid() {
		f.fail(gen)
		return nil, ErrInvalidCoordinate
	}

	sel := f.buildSelection(ctx, coord, models.SourceGPS)
	sel.Accuracy = &accuracy
	return f.commit(gen, sel)
}

// SelectOnMap clears the current selection and commits a map tap.
func (f *Flow) SelectOnMap(ctx context.Context, lat, lng float64) (*models.LocationSelection, error) {
	if !models.IsValidCoordinate(lat, lng) {
		return nil, ErrInvalidCoordinate
	}
	gen := f.begin(models.SourceMap)

	coord := models.Coordinate{Latitude: lat, Longitude: lng}
	sel := f.buildSelection(ctx, coord, models.SourceMap)
	return f.commit(gen, sel)
}

// SelectSearchResult clears the current selection and commits a pick
// from the place-search results.
func (f *Flow) SelectSearchResult(ctx context.Context, result models.SearchResult) (*models.LocationSelection, error) {
	if !result.Coordinate.Valid() {
		return nil, ErrInvalidCoordinate
	}
	gen := f.begin(models.SourceSearch)

	sel := f.buildSelection(ctx, result.Coordinate, models.SourceSearch)
	if result.Subtitle != "" {
		sel.Address = result.Subtitle
	}
	return f.commit(gen, sel)
}

// Clear drops the current selection and invalidates anything in flight.
func (f *Flow) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.state = StateEmpty
	f.current = nil
}

// Current returns a copy of the committed selection, or nil.
func (f *Flow) Current() *models.LocationSelection {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	sel := *f.current
	return &sel
}

// State reports the flow state; PendingSource is meaningful only while
// StatePending.
func (f *Flow) State() (State, models.LocationSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.pending
}

func (f *Flow) begin(source models.LocationSource) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.state = StatePending
	f.pending = source
	f.current = nil
	return f.gen
}

func (f *Flow) commit(gen uint64, sel models.LocationSelection) (*models.LocationSelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return nil, ErrSuperseded
	}
	f.state = StateSelected
	f.current = &sel
	out := sel
	return &out, nil
}

func (f *Flow) fail(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen == f.gen {
		f.state = StateEmpty
	}
}

// buildSelection reverse-geocodes best-effort: a failed lookup falls
// back to the formatted coordinate pair and never fails the selection.
func (f *Flow) buildSelection(ctx context.Context, coord models.Coordinate, source models.LocationSource) models.LocationSelection {
	address := models.FormatCoordinate(coord.Latitude, coord.Longitude)
	if f.resolver != nil {
		if resolved, err := f.resolver.ResolveAddress(ctx, coord.Latitude, coord.Longitude); err == nil && resolved != "" {
			address = resolved
		}
	}
	return models.LocationSelection{
		Coordinate: coord,
		Address:    address,
		Source:     source,
		SelectedAt: f.now(),
	}
}
