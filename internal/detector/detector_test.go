package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// fakeProvider serves fixed records per date and fails for dates in errs.
type fakeProvider struct {
	data  map[string]models.Records
	errs  map[string]error
	calls []string
}

func (f *fakeProvider) Provide(_ context.Context, date string, _ bool) (models.Records, error) {
	f.calls = append(f.calls, date)
	if err, ok := f.errs[date]; ok {
		return nil, err
	}
	return f.data[date], nil
}

func records(values map[string]float64) models.Records {
	r := models.Records{}
	for ticker, v := range values {
		r[ticker] = models.InstrumentRecord{ShortName: ticker + " ао", Value: decimal.NewFromFloat(v)}
	}
	return r
}

// Target 2026-02-02 is a Monday; its window is 2026-01-26 .. 2026-01-30.
var window = []string{"2026-01-26", "2026-01-27", "2026-01-28", "2026-01-29", "2026-01-30"}

func fixture() *fakeProvider {
	base := []float64{10e6, 11e6, 9e6, 10e6, 10e6}
	f := &fakeProvider{data: map[string]models.Records{}, errs: map[string]error{}}
	for i, d := range window {
		f.data[d] = records(map[string]float64{"SBER": base[i], "FLAT": 20e6, "RU000A1": 1e6})
	}
	f.data["2026-02-02"] = records(map[string]float64{"SBER": 41e6, "FLAT": 100e6, "RU000A1": 1e9, "NEWCO": 5e9})
	return f
}

func newDetector(p models.RecordsProvider) *Detector {
	return New(config.Default().Detection, p)
}

func TestAnalyze(t *testing.T) {
	p := fixture()
	r, err := newDetector(p).Analyze(context.Background(), "2026-02-02", false)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, append(append([]string{}, window...), "2026-02-02"), p.calls)

	assert.Equal(t, "2026-01-26", r.Metadata.BasePeriodStart)
	assert.Equal(t, "2026-01-30", r.Metadata.BasePeriodEnd)
	assert.Equal(t, 5, r.Metadata.BasePeriodDays)
	assert.Equal(t, 4, r.Metadata.TotalTickers)

	// FLAT has zero spread so its z-score is guarded to 0 despite +400%
	require.Len(t, r.Anomalies, 1)
	a := r.Anomalies[0]
	assert.Equal(t, "SBER", a.Ticker)
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 43.84, a.ZScore)
	assert.Equal(t, 310.0, a.DeviationPercent)
	assert.Empty(t, r.Warnings)
}

func TestAnalyzeExactThreeHundredPercentIsNotSelected(t *testing.T) {
	p := fixture()
	p.data["2026-02-02"] = records(map[string]float64{"SBER": 40e6})

	r, err := newDetector(p).Analyze(context.Background(), "2026-02-02", false)
	require.NoError(t, err)
	assert.Empty(t, r.Anomalies, "deviation must exceed the minimum, not equal it")
}

func TestAnalyzePartialBaseline(t *testing.T) {
	p := fixture()
	p.errs["2026-01-27"] = errors.New("fetch exhausted")
	p.errs["2026-01-29"] = errors.New("fetch exhausted")
	p.data["2026-01-26"] = records(map[string]float64{"FLAT": 20e6})
	p.data["2026-01-28"] = records(map[string]float64{"FLAT": 20e6})

	r, err := newDetector(p).Analyze(context.Background(), "2026-02-02", false)
	require.NoError(t, err)

	// SBER survives only on 2026-01-30
	assert.Equal(t, []string{"ticker SBER: only 1 day(s) of data instead of 5"}, r.Warnings)
	assert.Equal(t, 5, r.Metadata.BasePeriodDays)
}

func TestAnalyzeAllBaselineFail(t *testing.T) {
	p := fixture()
	for _, d := range window {
		p.errs[d] = errors.New("fetch exhausted")
	}

	r, err := newDetector(p).Analyze(context.Background(), "2026-02-02", false)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrNoBaselineData)
	assert.NotContains(t, p.calls, "2026-02-02", "target is not loaded once the baseline is gone")
}

func TestAnalyzeTargetFailure(t *testing.T) {
	p := fixture()
	boom := errors.New("fetch exhausted")
	p.errs["2026-02-02"] = boom

	r, err := newDetector(p).Analyze(context.Background(), "2026-02-02", false)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrTargetFetch)
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzeEmptyTarget(t *testing.T) {
	p := fixture()
	p.data["2026-02-02"] = models.Records{}

	r, err := newDetector(p).Analyze(context.Background(), "2026-02-02", false)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestAnalyzeInvalidDate(t *testing.T) {
	_, err := newDetector(fixture()).Analyze(context.Background(), "02/02/2026", false)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAnalyzeRecordsRun(t *testing.T) {
	rec := &runRecorder{}
	d := New(config.Default().Detection, fixture(), WithRecorder(rec))

	_, err := d.Analyze(context.Background(), "2026-02-02", false)
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 1, 0}, rec.run)
}

type runRecorder struct {
	run [3]int
}

func (r *runRecorder) RecordFetchAttempt(string)   {}
func (r *runRecorder) RecordPage(int)              {}
func (r *runRecorder) RecordCacheLookup(bool)      {}
func (r *runRecorder) RecordFetchDuration(float64) {}
func (r *runRecorder) RecordRun(total, anomalies, warnings int) {
	r.run = [3]int{total, anomalies, warnings}
}

func TestDefaultDate(t *testing.T) {
	monday := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	d := New(config.Default().Detection, fixture(), WithClock(func() time.Time { return monday }))
	assert.Equal(t, "2026-01-30", d.DefaultDate())
}

func TestInit(t *testing.T) {
	p := fixture()
	p.errs["2026-01-28"] = errors.New("fetch exhausted")
	monday := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	d := New(config.Default().Detection, p, WithClock(func() time.Time { return monday }))

	res, err := d.Init(context.Background(), 6)
	require.NoError(t, err)

	assert.Equal(t, append(append([]string{}, window...), "2026-02-02"), res.Dates)
	assert.Equal(t, res.Dates, p.calls)
	assert.Equal(t, 5, res.Loaded)
	assert.Equal(t, []string{"2026-01-28"}, res.Failed)

	_, err = d.Init(context.Background(), 0)
	assert.Error(t, err)
}

func TestInitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := fixture()
	d := New(config.Default().Detection, &cancellingProvider{inner: p, cancel: cancel})

	_, err := d.Init(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, p.calls, 1)
}

type cancellingProvider struct {
	inner  *fakeProvider
	cancel context.CancelFunc
}

func (c *cancellingProvider) Provide(ctx context.Context, date string, force bool) (models.Records, error) {
	c.cancel()
	c.inner.Provide(ctx, date, force)
	return nil, ctx.Err()
}
