package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YnTheNerd/cleanspot/internal/models"
)

type fakeGPS struct {
	coord    models.Coordinate
	accuracy float64
	err      error
	delay    time.Duration
	started  chan struct{} // closed when CurrentPosition is entered, if non-nil
	proceed  chan struct{} // blocks completion until closed, if non-nil
}

func (g *fakeGPS) CurrentPosition(ctx context.Context) (models.Coordinate, float64, error) {
	if g.started != nil {
		close(g.started)
	}
	if g.proceed != nil {
		select {
		case <-g.proceed:
		case <-ctx.Done():
			return models.Coordinate{}, 0, ctx.Err()
		}
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return models.Coordinate{}, 0, ctx.Err()
		}
	}
	return g.coord, g.accuracy, g.err
}

type fakeResolver struct {
	address string
	err     error
}

func (r *fakeResolver) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	return r.address, r.err
}

func TestFlow_GPSSelection(t *testing.T) {
	gps := &fakeGPS{coord: models.Coordinate{Latitude: 3.8480, Longitude: 11.5021}, accuracy: 12.5}
	f := NewFlow(gps, &fakeResolver{address: "Avenue Kennedy Yaoundé"})

	sel, err := f.AcquireGPS(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SourceGPS, sel.Source)
	assert.Equal(t, 3.8480, sel.Coordinate.Latitude)
	assert.Equal(t, "Avenue Kennedy Yaoundé", sel.Address)
	require.NotNil(t, sel.Accuracy)
	assert.Equal(t, 12.5, *sel.Accuracy)

	state, _ := f.State()
	assert.Equal(t, StateSelected, state)
}

func TestFlow_ReverseGeocodeFailureFallsBackToCoordinates(t *testing.T) {
	gps := &fakeGPS{coord: models.Coordinate{Latitude: 3.8480, Longitude: 11.5021}}
	f := NewFlow(gps, &fakeResolver{err: errors.New("service down")})

	sel, err := f.AcquireGPS(context.Background())
	require.NoError(t, err, "reverse geocoding failure must not fail the selection")
	assert.Equal(t, "3.848000, 11.502100", sel.Address)
}

func TestFlow_NewSourceReplacesSelectionEntirely(t *testing.T) {
	gps := &fakeGPS{coord: models.Coordinate{Latitude: 3.8480, Longitude: 11.5021}, accuracy: 8}
	f := NewFlow(gps, &fakeResolver{address: "quelque part"})

	_, err := f.SelectOnMap(context.Background(), 4.0511, 9.7679)
	require.NoError(t, err)

	sel, err := f.AcquireGPS(context.Background())
	require.NoError(t, err)

	current := f.Current()
	require.NotNil(t, current)
	assert.Equal(t, models.SourceGPS, current.Source, "source reflects only the latest selection")
	assert.Equal(t, sel.Coordinate, current.Coordinate)
	assert.NotNil(t, current.Accuracy, "no field merging: accuracy comes from the GPS fix")
}

func TestFlow_SlowGPSDiscardedAfterMapTap(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	gps := &fakeGPS{
		coord:   models.Coordinate{Latitude: 1, Longitude: 1},
		started: started,
		proceed: proceed,
	}
	f := NewFlow(gps, nil)

	type result struct {
		sel *models.LocationSelection
		err error
	}
	done := make(chan result, 1)
	go func() {
		sel, err := f.AcquireGPS(context.Background())
		done <- result{sel, err}
	}()

	<-started

	// Map tap supersedes the in-flight GPS acquisition.
	mapSel, err := f.SelectOnMap(context.Background(), 4.0511, 9.7679)
	require.NoError(t, err)

	close(proceed)
	res := <-done
	assert.ErrorIs(t, res.err, ErrSuperseded)

	current := f.Current()
	require.NotNil(t, current)
	assert.Equal(t, models.SourceMap, current.Source)
	assert.Equal(t, mapSel.Coordinate, current.Coordinate)
}

func TestFlow_GPSTimeout(t *testing.T) {
	gps := &fakeGPS{coord: models.Coordinate{Latitude: 1, Longitude: 1}, delay: time.Second}
	f := NewFlow(gps, nil, WithGPSTimeout(20*time.Millisecond))

	_, err := f.AcquireGPS(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	state, _ := f.State()
	assert.Equal(t, StateEmpty, state, "failed acquisition leaves the flow empty")
}

func TestFlow_SearchResultSelectionUsesSubtitle(t *testing.T) {
	f := NewFlow(nil, &fakeResolver{err: errors.New("down")})

	sel, err := f.SelectSearchResult(context.Background(), models.SearchResult{
		ID:         "place-1",
		Coordinate: models.Coordinate{Latitude: 3.8480, Longitude: 11.5021},
		Title:      "Marché Central",
		Subtitle:   "Marché Central, Yaoundé, Cameroun",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceSearch, sel.Source)
	assert.Equal(t, "Marché Central, Yaoundé, Cameroun", sel.Address)
}

func TestFlow_RejectsInvalidCoordinates(t *testing.T) {
	f := NewFlow(nil, nil)

	_, err := f.SelectOnMap(context.Background(), 200, 11.5)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = f.SelectSearchResult(context.Background(), models.SearchResult{
		Coordinate: models.Coordinate{Latitude: 0, Longitude: -999},
	})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	assert.Nil(t, f.Current())
}

func TestFlow_Clear(t *testing.T) {
	f := NewFlow(nil, nil)

	_, err := f.SelectOnMap(context.Background(), 3.8480, 11.5021)
	require.NoError(t, err)
	require.NotNil(t, f.Current())

	f.Clear()
	assert.Nil(t, f.Current())
	state, _ := f.State()
	assert.Equal(t, StateEmpty, state)
}
