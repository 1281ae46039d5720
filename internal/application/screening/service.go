package screening

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/infrastructure/cache"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molmatch/internal/matching/exact"
	"github.com/turtacn/molmatch/internal/matching/substructure"
	"github.com/turtacn/molmatch/internal/matching/tautomer"
	"github.com/turtacn/molmatch/internal/notation"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Service screens batches of targets.
type Service interface {
	Screen(ctx context.Context, input *ScreenInput) (*ScreenResult, error)
	UpdateConfig(cfg *config.Config)
}

// Option configures the service.
type Option func(*serviceImpl)

// WithCache sets the verdict cache.  The default caches nothing.
func WithCache(c cache.VerdictCache) Option {
	return func(s *serviceImpl) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithMetrics sets the metric set.
func WithMetrics(m *prometheus.MatchingMetrics) Option {
	return func(s *serviceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *serviceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

type serviceImpl struct {
	mu      sync.RWMutex
	cfg     config.Config
	cache   cache.VerdictCache
	metrics *prometheus.MatchingMetrics
	logger  logging.Logger
}

// NewService returns a screening service.  A nil cfg takes the defaults.
func NewService(cfg *config.Config, opts ...Option) Service {
	s := &serviceImpl{
		cache:   cache.Noop(),
		metrics: prometheus.NewNoopMatchingMetrics(),
		logger:  logging.NewNopLogger(),
	}
	s.UpdateConfig(cfg)
	for _, o := range opts {
		o(s)
	}
	return s
}

// UpdateConfig replaces the settings used by runs started afterwards.
func (s *serviceImpl) UpdateConfig(cfg *config.Config) {
	var c config.Config
	if cfg != nil {
		c = *cfg
	}
	config.ApplyDefaults(&c)
	s.mu.Lock()
	s.cfg = c
	s.mu.Unlock()
}

func (s *serviceImpl) config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// run holds what every job of one screening run shares.  Nothing in it is
// written after the jobs start.
type run struct {
	id         string
	input      *ScreenInput
	cfg        config.Config
	query      *molecule.Molecule
	queryFP    *molecule.Fingerprint
	fpOpts     molecule.FingerprintOptions
	prefilter  bool
	subOpts    substructure.Options
	exactConds exact.Conditions
	tauConds   tautomer.Conditions
	similarity molecule.SimilarityCalculator
	bottom     float64
	top        float64
	maxEmb     int
	queryKey   string
	log        logging.Logger
}

func (s *serviceImpl) Screen(ctx context.Context, input *ScreenInput) (*ScreenResult, error) {
	r, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	mode := string(input.Mode)
	start := time.Now()

	if r.cfg.Screening.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Screening.Timeout)
		defer cancel()
	}

	s.metrics.ScreeningActiveRuns.WithLabelValues().Inc()
	defer s.metrics.ScreeningActiveRuns.WithLabelValues().Dec()

	r.log.Info("screening started",
		logging.Int("targets", len(input.Targets)),
		logging.Int("workers", r.cfg.Screening.Workers),
		logging.Bool("prefilter", r.prefilter),
		logging.String("cache", s.cache.Backend()))

	hits := make([]Hit, len(input.Targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Screening.Workers)
	for i := range input.Targets {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.metrics.ScreeningWorkersBusy.WithLabelValues().Inc()
			defer s.metrics.ScreeningWorkersBusy.WithLabelValues().Dec()

			hit, err := s.screenOne(gctx, r, i)
			if err != nil {
				return err
			}
			hits[i] = hit
			prometheus.RecordScreeningTarget(s.metrics, mode, hit.Verdict)
			return nil
		})
	}
	werr := g.Wait()

	res := &ScreenResult{RunID: r.id, Mode: input.Mode, Hits: hits, Duration: time.Since(start)}
	for _, h := range hits {
		if h.Verdict == "" {
			continue
		}
		res.Screened++
		switch h.Verdict {
		case VerdictHit:
			res.Matched++
		case VerdictPrefiltered:
			res.Prefiltered++
		case VerdictError:
			res.Errors++
		}
		if h.Cached {
			res.CacheHits++
		}
	}
	s.metrics.ScreeningDuration.WithLabelValues(mode).Observe(res.Duration.Seconds())

	if werr == nil {
		werr = ctx.Err()
	}
	if werr != nil {
		s.metrics.ScreeningRunsTotal.WithLabelValues(mode, "cancelled").Inc()
		r.log.Warn("screening cancelled",
			logging.Int("screened", res.Screened),
			logging.Duration("duration", res.Duration),
			logging.Err(werr))
		return res, errors.Wrap(werr, errors.ErrCodeScreeningCancelled, "screening cancelled").
			WithDetailf("%d of %d targets screened", res.Screened, len(hits))
	}

	s.metrics.ScreeningRunsTotal.WithLabelValues(mode, "ok").Inc()
	r.log.Info("screening finished",
		logging.Int("screened", res.Screened),
		logging.Int("matched", res.Matched),
		logging.Int("prefiltered", res.Prefiltered),
		logging.Int("cache_hits", res.CacheHits),
		logging.Int("errors", res.Errors),
		logging.Duration("duration", res.Duration))
	return res, nil
}

func (s *serviceImpl) prepare(input *ScreenInput) (*run, error) {
	if input == nil {
		return nil, errors.New(errors.ErrCodeScreeningInvalidRequest, "screen input is nil")
	}
	if !input.Mode.IsValid() {
		return nil, errors.Newf(errors.ErrCodeScreeningInvalidRequest, "unknown screening mode %q", input.Mode)
	}
	cfg := s.config()
	r := &run{
		id:    uuid.NewString(),
		input: input,
		cfg:   cfg,
		fpOpts: molecule.FingerprintOptions{
			Bits:          cfg.Screening.FingerprintBits,
			MaxPathLength: cfg.Screening.FingerprintPathLen,
		},
		maxEmb: input.MaxEmbeddings,
	}
	if r.maxEmb <= 0 {
		r.maxEmb = cfg.Screening.MaxEmbeddingsPerPair
	}
	r.log = s.logger.With(logging.String("run_id", r.id), logging.String("mode", string(input.Mode)))

	var err error
	if input.Mode == ModeSubstructure {
		r.query, err = notation.ParseQuery(input.Query)
	} else {
		r.query, err = notation.ParseMolecule(input.Query)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScreeningInvalidRequest, "cannot read query")
	}

	var conditions string
	switch input.Mode {
	case ModeSubstructure:
		r.subOpts = SubstructureOptions(cfg.Matching)
		r.prefilter = !cfg.Screening.DisablePrefilter
		conditions = fmt.Sprintf("%+v", r.subOpts)
	case ModeExact:
		conditions = pick(input.Conditions, cfg.Tautomer.ExactConditions)
		if r.exactConds, err = exact.ParseConditions(conditions); err != nil {
			return nil, err
		}
		conditions = r.exactConds.String()
	case ModeTautomer:
		conditions = pick(input.Conditions, cfg.Tautomer.Conditions)
		if r.tauConds, err = tautomer.ParseConditions(conditions); err != nil {
			return nil, err
		}
		r.prefilter = !cfg.Screening.DisablePrefilter
		conditions = r.tauConds.String()
	case ModeSimilarity:
		metric, err := molecule.ParseSimilarityMetric(cfg.Screening.SimilarityMetric)
		if err != nil {
			return nil, err
		}
		if r.similarity, err = molecule.NewSimilarityCalculator(metric); err != nil {
			return nil, err
		}
		r.bottom, r.top = cfg.Screening.SimilarityBottom, cfg.Screening.SimilarityTop
		if input.SimilarityBottom != 0 || input.SimilarityTop != 0 {
			r.bottom, r.top = input.SimilarityBottom, input.SimilarityTop
		}
		if r.bottom > r.top {
			return nil, errors.Newf(errors.ErrCodeScreeningInvalidRequest,
				"similarity bounds [%g, %g] are empty", r.bottom, r.top)
		}
		r.queryFP = molecule.ComputeFingerprint(r.query, r.fpOpts)
		conditions = fmt.Sprintf("%s %g %g %d/%d", metric, r.bottom, r.top, r.fpOpts.Bits, r.fpOpts.MaxPathLength)
	}
	if r.prefilter {
		r.queryFP = molecule.ComputeQueryFingerprint(r.query, r.fpOpts)
	}
	if input.CountEmbeddings {
		conditions += fmt.Sprintf(" count<=%d", r.maxEmb)
	}
	r.queryKey = cache.QueryKey(input.Query, string(input.Mode), conditions)
	return r, nil
}

func pick(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// screenOne matches target i.  Only cancellation is returned as an error;
// per-target failures are reported in the hit.
func (s *serviceImpl) screenOne(ctx context.Context, r *run, i int) (Hit, error) {
	t := r.input.Targets[i]
	hit := Hit{Index: i, TargetID: targetID(t)}
	load := func(ctx context.Context) (cache.Verdict, error) {
		return s.evaluate(ctx, r, t)
	}

	var (
		v      cache.Verdict
		cached bool
		err    error
	)
	if hit.TargetID == "" {
		v, err = load(ctx)
	} else {
		v, cached, err = s.lookup(ctx, r, cache.TargetKey(r.queryKey, hit.TargetID), load)
	}
	if cached {
		hit.Cached = true
		applyVerdict(&hit, v)
		return hit, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return hit, ctxErr
	}
	if err != nil {
		hit.Verdict, hit.Error = VerdictError, err.Error()
		r.log.Debug("target failed", logging.String("target", hit.TargetID), logging.Err(err))
		return hit, nil
	}
	applyVerdict(&hit, v)
	return hit, nil
}

// lookup serves key from the cache or runs load and stores its verdict.
// Caches that deduplicate loads get the whole exchange; with the others a
// read or write failure only costs the cached verdict.
func (s *serviceImpl) lookup(ctx context.Context, r *run, key string, load cache.Loader) (cache.Verdict, bool, error) {
	backend := s.cache.Backend()
	if lc, ok := s.cache.(cache.Loading); ok {
		v, cached, err := lc.GetOrLoad(ctx, key, load)
		if err == nil {
			prometheus.RecordCacheAccess(s.metrics, backend, cached)
		}
		return v, cached, err
	}

	v, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		prometheus.RecordCacheError(s.metrics, backend, "get")
		r.log.Warn("verdict cache read failed", logging.String("key", key), logging.Err(err))
	} else {
		prometheus.RecordCacheAccess(s.metrics, backend, ok)
	}
	if ok {
		return v, true, nil
	}
	if v, err = load(ctx); err != nil {
		return cache.Verdict{}, false, err
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		prometheus.RecordCacheError(s.metrics, backend, "set")
		r.log.Warn("verdict cache write failed", logging.String("key", key), logging.Err(err))
	}
	return v, false, nil
}

// evaluate parses and matches one target.  Failures, cancellation included,
// come back as errors so that nothing partial reaches the cache.
func (s *serviceImpl) evaluate(ctx context.Context, r *run, t Target) (cache.Verdict, error) {
	target := t.Molecule
	if target == nil {
		var err error
		if target, err = notation.ParseMolecule(t.Notation); err != nil {
			return cache.Verdict{}, err
		}
	} else {
		target = target.Clone()
	}

	start := time.Now()
	v, prefiltered, stats, err := s.match(ctx, r, target)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cache.Verdict{}, ctxErr
	}
	if prefiltered {
		return cache.Verdict{Prefiltered: true}, nil
	}
	prometheus.RecordSearch(s.metrics, string(r.input.Mode), v.Matched, err, time.Since(start), stats)
	if err != nil {
		return cache.Verdict{}, err
	}
	return v, nil
}

func applyVerdict(hit *Hit, v cache.Verdict) {
	switch {
	case v.Prefiltered:
		hit.Verdict = VerdictPrefiltered
	case v.Matched:
		hit.Verdict = VerdictHit
	default:
		hit.Verdict = VerdictMiss
	}
	hit.Embeddings, hit.Score, hit.Mapping = v.Embeddings, v.Score, v.Mapping
}

// targetID returns t.ID, or a digest of its notation.  Targets given only as
// molecules have no stable identity and bypass the cache.
func targetID(t Target) string {
	if t.ID != "" {
		return t.ID
	}
	if t.Notation == "" {
		return ""
	}
	return fmt.Sprintf("n%016x", xxhash.Sum64String(t.Notation))
}

// match runs the matcher of the run's mode on a private copy of the query.
func (s *serviceImpl) match(ctx context.Context, r *run, target *molecule.Molecule) (cache.Verdict, bool, prometheus.SearchStats, error) {
	var stats prometheus.SearchStats

	if r.input.Mode == ModeSimilarity {
		fp := molecule.ComputeFingerprint(target, r.fpOpts)
		score, err := r.similarity.Calculate(r.queryFP, fp)
		if err != nil {
			return cache.Verdict{}, false, stats, err
		}
		return cache.Verdict{Matched: molecule.WithinBounds(score, r.bottom, r.top), Score: score}, false, stats, nil
	}

	if r.prefilter {
		fp := molecule.ComputeFingerprint(target, r.fpOpts)
		if !fp.Contains(r.queryFP) {
			return cache.Verdict{}, true, stats, nil
		}
	}

	query := r.query.Clone()
	log := r.log.Named(string(r.input.Mode))

	switch r.input.Mode {
	case ModeSubstructure:
		m := substructure.New(target, substructure.WithOptions(r.subOpts), substructure.WithLogger(log))
		if err := m.SetQuery(query); err != nil {
			return cache.Verdict{}, false, stats, err
		}
		found, err := m.Find()
		if err != nil || !found {
			return cache.Verdict{}, false, searchStats(m.Stats()), err
		}
		v := cache.Verdict{Matched: true, Embeddings: 1, Mapping: append([]int(nil), m.QueryMapping()...)}
		if r.input.CountEmbeddings {
			for r.maxEmb <= 0 || v.Embeddings < r.maxEmb {
				if ctx.Err() != nil {
					break
				}
				more, err := m.FindNext()
				if err != nil {
					return cache.Verdict{}, false, searchStats(m.Stats()), err
				}
				if !more {
					break
				}
				v.Embeddings++
			}
		}
		return v, false, searchStats(m.Stats()), nil

	case ModeExact:
		m := exact.New(target, exact.WithConditions(r.exactConds), exact.WithLogger(log))
		if err := m.SetQuery(query); err != nil {
			return cache.Verdict{}, false, stats, err
		}
		found, err := m.Find()
		if err != nil || !found {
			return cache.Verdict{}, false, stats, err
		}
		return cache.Verdict{Matched: true, Embeddings: 1, Mapping: append([]int(nil), m.QueryMapping()...)}, false, stats, nil

	case ModeTautomer:
		m := tautomer.New(target,
			tautomer.WithConditions(r.tauConds),
			tautomer.WithSubstructure(true),
			tautomer.WithLogger(log))
		if err := m.SetQuery(query); err != nil {
			return cache.Verdict{}, false, stats, err
		}
		found, err := m.Find()
		if err != nil || !found {
			return cache.Verdict{}, false, stats, err
		}
		v := cache.Verdict{Matched: true, Embeddings: 1, Mapping: append([]int(nil), m.QueryMapping()...)}
		if r.input.CountEmbeddings {
			for r.maxEmb <= 0 || v.Embeddings < r.maxEmb {
				if ctx.Err() != nil {
					break
				}
				more, err := m.FindNext()
				if err != nil {
					return cache.Verdict{}, false, stats, err
				}
				if !more {
					break
				}
				v.Embeddings++
			}
		}
		return v, false, stats, nil
	}
	return cache.Verdict{}, false, stats, errors.Newf(errors.ErrCodeScreeningInvalidRequest, "unknown screening mode %q", r.input.Mode)
}

func searchStats(st substructure.Stats) prometheus.SearchStats {
	return prometheus.SearchStats{
		Embeddings:        st.Embeddings,
		AromaticityChecks: st.AromaticityChecks,
		FragmentChecks:    st.FragmentChecks,
		FragmentCacheHits: st.FragmentCacheHits,
		MarkushSplices:    st.MarkushSplices,
	}
}

//Personal.AI order the ending
