package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"typepool/internal/cache"
	"typepool/internal/config"
	"typepool/internal/crawler"
	"typepool/internal/locator"
	"typepool/internal/pool"
	"typepool/internal/storage"
)

// session bundles what a command needs to describe types.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	chain   *locator.Chain
	pool    *pool.Pool
	closers []func() error
}

// openSession builds the locator chain in lookup order: class path entries,
// then the SQLite index if it exists, then Redis if configured.
func openSession(cfg *config.Config, logger *zap.Logger) (*session, error) {
	s := &session{cfg: cfg, logger: logger}
	var stages []locator.Stage

	for _, entry := range cfg.Classpath {
		info, err := os.Stat(entry)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("class path entry %s: %w", entry, err)
		}
		if info.IsDir() {
			stages = append(stages, locator.Stage{Name: entry, Locator: locator.NewDirectory(entry)})
			continue
		}
		if !crawler.IsArchive(entry) {
			s.Close()
			return nil, fmt.Errorf("class path entry %s is neither a directory nor a jar", entry)
		}
		jar, err := locator.OpenJar(entry)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, jar.Close)
		stages = append(stages, locator.Stage{Name: entry, Locator: jar})
	}

	if cfg.Store.Path != "" {
		if _, err := os.Stat(cfg.Store.Path); err == nil {
			store, err := storage.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to open index %s: %w", cfg.Store.Path, err)
			}
			s.closers = append(s.closers, store.Close)
			stages = append(stages, locator.Stage{Name: cfg.Store.Path, Locator: store})
		} else if !errors.Is(err, fs.ErrNotExist) {
			s.Close()
			return nil, err
		}
	}

	if cfg.Redis.Addr != "" {
		r, err := openRedis(cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, r.Close)
		stages = append(stages, locator.Stage{Name: "redis://" + cfg.Redis.Addr, Locator: r})
	}

	if len(stages) == 0 {
		return nil, errors.New("nothing to search: set classpath, index some classes, or configure redis")
	}

	provider, err := cache.New(cfg.Cache.Provider, cfg.Cache.Size)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.chain = locator.NewChain(stages...)
	s.pool = pool.New(s.chain, pool.WithCache(provider), pool.WithLogger(logger))
	return s, nil
}

func openRedis(cfg *config.Config) (*locator.Redis, error) {
	rc := locator.DefaultRedisConfig()
	rc.Addr = cfg.Redis.Addr
	rc.Prefix = cfg.Redis.Prefix
	rc.Timeout = cfg.Redis.Timeout
	return locator.NewRedis(rc)
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *session) logStats() {
	if s.chain == nil {
		return
	}
	for _, st := range s.chain.Stats() {
		s.logger.Debug("locator stage",
			zap.String("stage", st.Stage),
			zap.Int("attempted", st.Stats.Attempted),
			zap.Int("found", st.Stats.Found),
			zap.Int("failed", st.Stats.Failed))
	}
}
