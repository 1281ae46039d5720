package screening

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/infrastructure/cache"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molmatch/internal/matching/substructure"
	"github.com/turtacn/molmatch/internal/testutil"
	"github.com/turtacn/molmatch/pkg/errors"
)

// MockVerdictCache is a mock implementation of cache.VerdictCache.
type MockVerdictCache struct {
	mock.Mock
}

func (m *MockVerdictCache) Get(ctx context.Context, key string) (cache.Verdict, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(cache.Verdict), args.Bool(1), args.Error(2)
}

func (m *MockVerdictCache) Set(ctx context.Context, key string, v cache.Verdict) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

func (m *MockVerdictCache) Backend() string { return "mock" }

func (m *MockVerdictCache) Close() error { return nil }

func targets(notations ...string) []Target {
	out := make([]Target, len(notations))
	for i, n := range notations {
		out[i] = Target{ID: n, Notation: n}
	}
	return out
}

func verdicts(res *ScreenResult) []string {
	out := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		out[i] = h.Verdict
	}
	return out
}

func TestScreen_Substructure(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   testutil.Benzene,
		Targets: targets(testutil.Phenol, testutil.Cyclohexane, testutil.Ethanol, testutil.Toluene),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{VerdictHit, VerdictMiss, VerdictPrefiltered, VerdictHit}, verdicts(res))
	assert.Equal(t, 4, res.Screened)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Prefiltered)
	assert.Equal(t, 0, res.Errors)
	for i, h := range res.Hits {
		assert.Equal(t, i, h.Index)
	}
	assert.Len(t, res.Hits[0].Mapping, 6)
}

func TestScreen_PrefilterDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Screening.DisablePrefilter = true
	svc := NewService(cfg)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   testutil.Benzene,
		Targets: targets("CCO"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictMiss}, verdicts(res))
	assert.Equal(t, 0, res.Prefiltered)
}

func TestScreen_CountEmbeddings(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:            ModeSubstructure,
		Query:           "CC",
		Targets:         targets("CC(C)C"),
		CountEmbeddings: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Hits[0].Embeddings)

	res, err = svc.Screen(context.Background(), &ScreenInput{
		Mode:            ModeSubstructure,
		Query:           "CC",
		Targets:         targets("CC(C)C"),
		CountEmbeddings: true,
		MaxEmbeddings:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Hits[0].Embeddings)
}

func TestScreen_Exact(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeExact,
		Query:   "CCO",
		Targets: targets("OCC", "CCCO", "CC=O"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictHit, VerdictMiss, VerdictMiss}, verdicts(res))
}

func TestScreen_ExactWithTautomerConditions(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:       ModeExact,
		Query:      "C(O)=C",
		Conditions: "TAU",
		Targets:    targets("C(=O)C", "CCO"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictHit, VerdictMiss}, verdicts(res))
}

func TestScreen_Tautomer(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeTautomer,
		Query:   "OC=C",
		Targets: targets("CC(=O)C", "CCCC"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictHit, VerdictPrefiltered}, verdicts(res))
}

func TestScreen_Similarity(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:             ModeSimilarity,
		Query:            "CCO",
		Targets:          targets("CCO", "c1ccccc1"),
		SimilarityBottom: 0.99,
		SimilarityTop:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictHit, VerdictMiss}, verdicts(res))
	assert.InDelta(t, 1.0, res.Hits[0].Score, 1e-9)
	assert.Less(t, res.Hits[1].Score, 0.99)
}

func TestScreen_InvalidInput(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	_, err := svc.Screen(ctx, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningInvalidRequest))

	_, err = svc.Screen(ctx, &ScreenInput{Mode: "fuzzy", Query: "C"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningInvalidRequest))

	_, err = svc.Screen(ctx, &ScreenInput{Mode: ModeSubstructure, Query: "C1CC"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningInvalidRequest))

	_, err = svc.Screen(ctx, &ScreenInput{Mode: ModeExact, Query: "CC", Conditions: "ELE BOGUS"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownCondition))

	_, err = svc.Screen(ctx, &ScreenInput{Mode: ModeSimilarity, Query: "CC", SimilarityBottom: 0.9, SimilarityTop: 0.1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningInvalidRequest))
}

func TestScreen_TargetErrorsAreReported(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CC",
		Targets: targets("CC", "C1CC", "CCC"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictHit, VerdictError, VerdictHit}, verdicts(res))
	assert.NotEmpty(t, res.Hits[1].Error)
	assert.Equal(t, 1, res.Errors)
}

func TestScreen_MoleculeTargetsAreNotModified(t *testing.T) {
	mol := testutil.Molecule(t, "OCC")
	before := mol.String()
	svc := NewService(nil)
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CO",
		Targets: []Target{{Molecule: mol}, {Molecule: mol}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, before, mol.String())
}

func TestScreen_UsesCache(t *testing.T) {
	mc := new(MockVerdictCache)
	mc.On("Get", mock.Anything, mock.MatchedBy(func(k string) bool { return len(k) > 0 })).
		Return(cache.Verdict{}, false, nil).Once()
	mc.On("Set", mock.Anything, mock.Anything, mock.MatchedBy(func(v cache.Verdict) bool { return v.Matched })).
		Return(nil).Once()

	svc := NewService(nil, WithCache(mc))
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CO",
		Targets: targets("CCO"),
	})
	require.NoError(t, err)
	assert.False(t, res.Hits[0].Cached)
	mc.AssertExpectations(t)

	mc.On("Get", mock.Anything, mock.Anything).Return(cache.Verdict{Matched: true, Embeddings: 1}, true, nil).Once()
	res, err = svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CO",
		Targets: targets("CCO"),
	})
	require.NoError(t, err)
	assert.True(t, res.Hits[0].Cached)
	assert.Equal(t, 1, res.CacheHits)
	assert.Equal(t, VerdictHit, res.Hits[0].Verdict)
	mc.AssertExpectations(t)
}

func TestScreen_CacheFailureFallsBackToMatching(t *testing.T) {
	mc := new(MockVerdictCache)
	mc.On("Get", mock.Anything, mock.Anything).Return(cache.Verdict{}, false, stderrors.New("down"))
	mc.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("down"))

	log := testutil.NewMockLogger()
	svc := NewService(nil, WithCache(mc), WithLogger(log))
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CO",
		Targets: targets("CCO"),
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictHit, res.Hits[0].Verdict)
	assert.True(t, log.HasMessage("warn", "verdict cache read failed"))
	assert.True(t, log.HasMessage("warn", "verdict cache write failed"))
}

func TestScreen_MemoryCacheSharedAcrossRuns(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	vc, err := cache.NewMemory(cfg.Cache)
	require.NoError(t, err)
	defer vc.Close()

	svc := NewService(cfg, WithCache(vc))
	in := &ScreenInput{Mode: ModeSubstructure, Query: "CO", Targets: targets("CCO", "CCC")}
	first, err := svc.Screen(context.Background(), in)
	require.NoError(t, err)
	second, err := svc.Screen(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{VerdictHit, VerdictPrefiltered}, verdicts(first))
	assert.Equal(t, verdicts(first), verdicts(second))
	assert.Equal(t, 1, second.Prefiltered)
	assert.Equal(t, 0, first.CacheHits)
	assert.Equal(t, 2, second.CacheHits)
}

func TestScreen_DuplicateTargetsMatchedOnce(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Screening.Workers = 1
	vc, err := cache.NewMemory(cfg.Cache)
	require.NoError(t, err)
	defer vc.Close()

	svc := NewService(cfg, WithCache(vc))
	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CO",
		Targets: targets("CCO", "CCO", "CCO"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{VerdictHit, VerdictHit, VerdictHit}, verdicts(res))
	assert.Equal(t, 2, res.CacheHits)
}

func TestScreen_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(nil)
	res, err := svc.Screen(ctx, &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   "CC",
		Targets: targets("CC", "CCC", "CCCC"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScreeningCancelled))
	require.NotNil(t, res)
	assert.Len(t, res.Hits, 3)
	assert.Less(t, res.Screened, 3)
}

func TestScreen_ManyTargetsManyWorkers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Screening.Workers = 8
	svc := NewService(cfg)

	var in []Target
	for i := 0; i < 64; i++ {
		if i%2 == 0 {
			in = append(in, Target{Notation: "Oc1ccccc1"})
		} else {
			in = append(in, Target{Notation: "CCCCCC"})
		}
	}
	res, err := svc.Screen(context.Background(), &ScreenInput{Mode: ModeSubstructure, Query: "c1ccccc1O", Targets: in})
	require.NoError(t, err)
	assert.Equal(t, 64, res.Screened)
	assert.Equal(t, 32, res.Matched)
}

func TestScreen_Metrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "screen_test"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewMatchingMetrics(collector)

	svc := NewService(nil, WithMetrics(metrics))
	_, err = svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   testutil.Benzene,
		Targets: targets("Oc1ccccc1", "CCO"),
	})
	require.NoError(t, err)

	families, err := collector.Gatherer().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["screen_test_screening_runs_total"])
	assert.True(t, names["screen_test_screening_targets_total"])
	assert.True(t, names["screen_test_searches_total"])
}

func TestUpdateConfig_AppliesToNextRun(t *testing.T) {
	svc := NewService(nil)
	cfg := &config.Config{}
	cfg.Screening.DisablePrefilter = true
	svc.UpdateConfig(cfg)

	res, err := svc.Screen(context.Background(), &ScreenInput{
		Mode:    ModeSubstructure,
		Query:   testutil.Benzene,
		Targets: targets("CCO"),
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictMiss, res.Hits[0].Verdict)
}

func TestUpdateConfig_Concurrent(t *testing.T) {
	svc := NewService(nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.UpdateConfig(&config.Config{Screening: config.ScreeningConfig{Workers: 2, Timeout: time.Minute}})
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Screen(context.Background(), &ScreenInput{Mode: ModeSubstructure, Query: "C", Targets: targets("CC")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestSubstructureOptions(t *testing.T) {
	o := SubstructureOptions(config.MatchingConfig{
		DisableAromaticityMatcher: true,
		UsePiSystemsMatcher:       true,
		Match3D:                   "conformation",
		RMSThreshold:              0.2,
		MaxEmbeddings:             5,
	})
	assert.False(t, o.UseAromaticityMatcher)
	assert.True(t, o.UsePiSystemsMatcher)
	assert.True(t, o.RestoreUnfoldedH)
	assert.Equal(t, substructure.Match3DConformation, o.Match3D)
	assert.Equal(t, 0.2, o.RMSThreshold)
	assert.Equal(t, 5, o.MaxEmbeddings)

	assert.Equal(t, substructure.Match3DAffine, ParseMatch3D("affine"))
	assert.Equal(t, substructure.Match3DNone, ParseMatch3D("bogus"))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("tautomer")
	assert.True(t, ok)
	assert.Equal(t, ModeTautomer, m)
	_, ok = ParseMode("fuzzy")
	assert.False(t, ok)
}

//Personal.AI order the ending
