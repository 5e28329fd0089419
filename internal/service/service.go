// Package service is the pull-simulation engine: it resolves draws against the
// shared catalog and keeps the isolated state of every session.
//
// Concurrency: sessions are created atomically, and the catalog is read
// without blocking other sessions. A single session must not be used by two
// goroutines at once; transports serialize requests per session id with
// session.Locker.
package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/pricing"
	"github.com/xtding233/gacha-simulator/internal/session"
	"github.com/xtding233/gacha-simulator/internal/token"
)

// Options configures a Service.
type Options struct {
	Rarity     gacha.RarityTable
	Pity       gacha.PityPolicy
	HistoryCap int // max stored history per session, <= 0 for unbounded
	RNG        gacha.RandomSource
	Tokens     token.Token
	Shop       pricing.Shop
	Logger     *zap.Logger
	Metrics    *Metrics
}

// Service is constructed once at process start and shared by all handlers.
type Service struct {
	catalog  *catalog.Catalog
	sessions *session.Store

	table      gacha.RarityTable
	policy     gacha.PityPolicy
	historyCap int
	rng        gacha.RandomSource
	tokens     token.Token
	shop       pricing.Shop
	logger     *zap.Logger
	metrics    *Metrics
}

// New creates a Service over cat.
func New(cat *catalog.Catalog, opts Options) (*Service, error) {
	if cat == nil {
		return nil, errors.New("service: nil catalog")
	}
	if opts.Rarity == nil {
		opts.Rarity = gacha.DefaultRarityTable()
	}
	if err := opts.Rarity.Validate(); err != nil {
		return nil, err
	}
	if opts.Pity.HardPity == 0 {
		opts.Pity = gacha.DefaultPityPolicy()
	}
	if err := opts.Pity.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Shop.Validate(); err != nil {
		return nil, err
	}
	if opts.RNG == nil {
		opts.RNG = gacha.DefaultRNG()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		catalog:    cat,
		sessions:   session.NewStore(),
		table:      opts.Rarity,
		policy:     opts.Pity,
		historyCap: opts.HistoryCap,
		rng:        opts.RNG,
		tokens:     opts.Tokens,
		shop:       opts.Shop,
		logger:     opts.Logger.Named("service"),
		metrics:    opts.Metrics,
	}, nil
}

// Catalog returns the shared catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Policy returns the pity policy in use.
func (s *Service) Policy() gacha.PityPolicy { return s.policy }

// RarityTable returns the rarity table in use.
func (s *Service) RarityTable() gacha.RarityTable { return s.table }

// session returns the session for id, creating it on first access with the
// default pool selected and its featured cards tracked.
func (s *Service) session(id string) *session.Session {
	sess, created := s.sessions.GetOrCreate(id, func(id string) *session.Session {
		var featured []string
		poolID := s.catalog.DefaultPoolID()
		if p, ok := s.catalog.Pool(poolID); ok {
			featured = p.FeaturedSSR
		}
		return session.New(id, poolID, featured, s.historyCap)
	})
	if created {
		s.metrics.sessionCreated()
		s.logger.Debug("session created", zap.String("session_id", sess.ID), zap.String("pool_id", sess.CurrentPoolID))
	}
	return sess
}

// SessionID returns id, or a freshly minted id when id is empty, making sure
// the session exists.
func (s *Service) SessionID(id string) string {
	return s.session(id).ID
}

// HasSession reports whether a session is live in memory.
func (s *Service) HasSession(id string) bool {
	_, ok := s.sessions.Get(id)
	return ok
}

// Snapshot copies the state of a live session.
func (s *Service) Snapshot(id string) (session.Snapshot, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return session.Snapshot{}, false
	}
	return sess.Snapshot(), true
}

// Restore installs a session from a snapshot unless it is already live.
func (s *Service) Restore(snap session.Snapshot) {
	if snap.SessionID == "" {
		return
	}
	s.sessions.PutIfAbsent(session.FromSnapshot(snap, s.historyCap))
}

// Reset clears counters and history of a session and tracks the featured
// cards of its current pool.
func (s *Service) Reset(id string) {
	s.resetSession(s.session(id))
}

func (s *Service) resetSession(sess *session.Session) {
	var featured []string
	if p, ok := s.catalog.Pool(sess.CurrentPoolID); ok {
		featured = p.FeaturedSSR
	}
	sess.Reset(featured)
	s.logger.Info("session reset", zap.String("session_id", sess.ID), zap.String("pool_id", sess.CurrentPoolID))
}

// SetCurrentPool selects poolID for the session. With autoReset a change of
// pool also resets the session. Returns false when the pool does not exist.
func (s *Service) SetCurrentPool(id, poolID string, autoReset bool) bool {
	if _, ok := s.catalog.Pool(poolID); !ok {
		return false
	}
	sess := s.session(id)
	if autoReset && poolID != sess.CurrentPoolID {
		sess.CurrentPoolID = poolID
		s.resetSession(sess)
		return true
	}
	sess.CurrentPoolID = poolID
	return true
}

// GetCurrentPool returns the pool selected by the session.
func (s *Service) GetCurrentPool(id string) (*catalog.Pool, bool) {
	return s.catalog.Pool(s.session(id).CurrentPoolID)
}

// GetAllPools returns every pool in load order.
func (s *Service) GetAllPools() []*catalog.Pool {
	return s.catalog.Pools()
}

// LoadPools loads a catalog document; on error nothing is applied.
func (s *Service) LoadPools(doc catalog.Document) (int, error) {
	return s.catalog.Load(doc)
}

// UpdatePool adds or replaces one pool.
func (s *Service) UpdatePool(p catalog.Pool) error {
	return s.catalog.Update(p)
}

// ClearPools drops the whole catalog.
func (s *Service) ClearPools() {
	s.catalog.Clear()
}

// Simulate runs a Monte Carlo study of the configured rarity table and pity policy.
func (s *Service) Simulate(goal gacha.TrialGoal, trials, budget int) gacha.Stats {
	return gacha.RunMonteCarlo(gacha.SimParams{
		Table:  s.table,
		Policy: s.policy,
		Budget: budget,
	}, goal, trials, s.rng)
}

// RestoreFrom installs the persisted snapshot of id unless the session is
// already live. A missing snapshot is not an error.
func (s *Service) RestoreFrom(ctx context.Context, store session.SnapshotStore, id string) error {
	if store == nil || s.HasSession(id) {
		return nil
	}
	snap, ok, err := store.Load(ctx, id)
	if err != nil || !ok {
		return err
	}
	s.Restore(snap)
	return nil
}

// SaveTo persists the live session id.
func (s *Service) SaveTo(ctx context.Context, store session.SnapshotStore, id string) error {
	if store == nil {
		return nil
	}
	snap, ok := s.Snapshot(id)
	if !ok {
		return nil
	}
	return store.Save(ctx, snap)
}
