package audience

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Estimator sizes the audience described by groups and the optional
// synthesized base condition. No real data source is in scope; the shipped
// estimators are mocks.
type Estimator interface {
	Estimate(ctx context.Context, groups []ConditionGroup, autoAdded *Condition) (int, error)
}

// EstimatorFunc adapts a function into an Estimator.
type EstimatorFunc func(ctx context.Context, groups []ConditionGroup, autoAdded *Condition) (int, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, groups []ConditionGroup, autoAdded *Condition) (int, error) {
	return f(ctx, groups, autoAdded)
}

const (
	defaultEstimateMin  = 10000
	defaultEstimateSpan = 500000
)

// RandomEstimator returns a uniformly random figure in [Min, Min+Span).
type RandomEstimator struct {
	Min  int
	Span int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomEstimator builds a random estimator. A zero seed uses a time seed.
func NewRandomEstimator(min, span int, seed uint64) *RandomEstimator {
	if span <= 0 {
		min, span = defaultEstimateMin, defaultEstimateSpan
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomEstimator{
		Min:  min,
		Span: span,
		rng:  rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Estimate returns the next random figure.
func (e *RandomEstimator) Estimate(context.Context, []ConditionGroup, *Condition) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Min + e.rng.IntN(e.Span), nil
}

// FixedEstimator always returns the same figure.
type FixedEstimator int

// Estimate returns the fixed figure.
func (f FixedEstimator) Estimate(context.Context, []ConditionGroup, *Condition) (int, error) {
	return int(f), nil
}

// CachedEstimator memoizes estimates per condition-set fingerprint so an
// unchanged set keeps its figure until the TTL elapses. Expired figures are
// swept by the cache janitor.
type CachedEstimator struct {
	next  Estimator
	cache *gocache.Cache
}

// NewCachedEstimator wraps next with a TTL cache. A non-positive ttl disables
// caching.
func NewCachedEstimator(next Estimator, ttl time.Duration) *CachedEstimator {
	c := &CachedEstimator{next: next}
	if ttl > 0 {
		c.cache = gocache.New(ttl, ttl)
	}
	return c
}

// Estimate returns a cached figure or asks the wrapped estimator.
func (c *CachedEstimator) Estimate(ctx context.Context, groups []ConditionGroup, autoAdded *Condition) (int, error) {
	if c.cache == nil {
		return c.next.Estimate(ctx, groups, autoAdded)
	}
	key := conditionFingerprint(groups, autoAdded)
	if item, ok := c.cache.Get(key); ok {
		if value, ok := item.(int); ok {
			return value, nil
		}
	}
	value, err := c.next.Estimate(ctx, groups, autoAdded)
	if err != nil {
		return 0, err
	}
	c.cache.Set(key, value, gocache.DefaultExpiration)
	return value, nil
}

// Len reports the number of cached figures, expired ones included until the
// next sweep.
func (c *CachedEstimator) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// conditionFingerprint hashes the semantic content of a condition set. IDs
// are left out so re-created but identical conditions share a figure.
func conditionFingerprint(groups []ConditionGroup, autoAdded *Condition) string {
	type term struct {
		Type         PerformType
		Event        string
		Operator     Operator
		N            string
		When         WhenOption
		Days         string
		IncludeToday bool
	}
	toTerm := func(c Condition) term {
		return term{c.Type, c.Event, c.Operator, c.N, c.When, c.Days, c.IncludeToday}
	}
	shape := struct {
		Auto   *term
		Groups [][]term
	}{}
	if autoAdded != nil {
		t := toTerm(*autoAdded)
		shape.Auto = &t
	}
	for _, g := range groups {
		terms := make([]term, 0, len(g.Conditions))
		for _, c := range g.Conditions {
			terms = append(terms, toTerm(c))
		}
		shape.Groups = append(shape.Groups, terms)
	}
	b, err := json.Marshal(shape)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
