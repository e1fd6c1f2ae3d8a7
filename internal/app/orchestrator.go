package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/quantmind-br/bundlecheck/internal/bundle"
	"github.com/quantmind-br/bundlecheck/internal/cache"
	"github.com/quantmind-br/bundlecheck/internal/config"
	"github.com/quantmind-br/bundlecheck/internal/domain"
	"github.com/quantmind-br/bundlecheck/internal/sums"
	"github.com/quantmind-br/bundlecheck/internal/utils"
)

// Orchestrator coordinates bundle, sums file and repository verification
type Orchestrator struct {
	config    *config.Config
	logger    *utils.Logger
	bundles   domain.BundleVerifier
	sums      domain.SumsVerifier
	cache     domain.Cache
	ownsCache bool
	workers   int
	progress  bool
	strict    bool
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	domain.CommonOptions
	Config *config.Config
	Logger *utils.Logger

	// Optional collaborators, built from Config when nil
	BundleVerifier domain.BundleVerifier
	SumsVerifier   domain.SumsVerifier
	Cache          domain.Cache
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: opts.Verbose,
		})
	}

	o := &Orchestrator{
		config:   cfg,
		logger:   logger.WithComponent("orchestrator"),
		bundles:  opts.BundleVerifier,
		sums:     opts.SumsVerifier,
		cache:    opts.Cache,
		workers:  opts.Workers,
		progress: opts.Progress,
		strict:   opts.Strict,
	}
	if o.bundles == nil {
		o.bundles = bundle.NewVerifier(logger)
	}
	if o.sums == nil {
		o.sums = sums.NewVerifier(logger)
	}
	if o.workers <= 0 {
		o.workers = cfg.Concurrency.Workers
	}

	if o.cache == nil && (opts.UseCache || cfg.Cache.Enabled) {
		cacheOpts := cache.DefaultOptions()
		cacheOpts.Directory = utils.ExpandPath(cfg.Cache.Directory)
		c, err := cache.NewBadgerCache(cacheOpts)
		if err != nil {
			o.logger.Warn().Err(err).Msg("Result cache unavailable, continuing without it")
		} else {
			o.cache = c
			o.ownsCache = true
		}
	}

	return o, nil
}

// Close releases all resources held by the orchestrator
func (o *Orchestrator) Close() error {
	if o.ownsCache && o.cache != nil {
		return o.cache.Close()
	}
	return nil
}

// VerifyBundle checks one bundle. Results for archives are served from and
// stored in the result cache when one is configured. Aborted results name
// the archive location and are never stored.
func (o *Orchestrator) VerifyBundle(ctx context.Context, path string, strict bool) domain.Result {
	key := o.bundleCacheKey(path, strict)
	if key != "" {
		res, found, err := cache.LoadResult(ctx, o.cache, key)
		if err != nil {
			o.logger.Warn().Err(err).Str("bundle", path).Msg("Cache read failed")
		} else if found {
			o.logger.Debug().Str("bundle", path).Msg("Using cached result")
			return res
		}
	}

	start := time.Now()
	res := o.bundles.VerifyResult(path, strict)
	o.logger.Debug().
		Str("bundle", path).
		Bool("strict", strict).
		Bool("ok", res.OK).
		Dur("duration", time.Since(start)).
		Msg("Verified bundle")

	if key != "" && !res.Aborted() {
		if err := cache.StoreResult(ctx, o.cache, key, res, o.config.Cache.TTL); err != nil {
			o.logger.Warn().Err(err).Str("bundle", path).Msg("Cache write failed")
		}
	}
	return res
}

// bundleCacheKey returns the cache key for an archive bundle, or "" when
// the result must not be cached
func (o *Orchestrator) bundleCacheKey(path string, strict bool) string {
	if o.cache == nil || !bundle.IsArchive(path) {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	digest, err := utils.HashFile(path)
	if err != nil {
		return ""
	}
	return cache.BundleKey(digest, strict)
}

// VerifySums checks one SHA256SUMS file
func (o *Orchestrator) VerifySums(path string) domain.Result {
	return o.sums.VerifyResult(path)
}

// Check detects what path holds and verifies it accordingly. Bundles are
// checked in the orchestrator's strict mode.
func (o *Orchestrator) Check(ctx context.Context, path string) (*domain.Report, error) {
	target := DetectTarget(path)
	o.logger.Debug().
		Str("path", path).
		Str("target", string(target)).
		Msg("Detected target type")

	switch target {
	case TargetBundle:
		return domain.FromResult(o.VerifyBundle(ctx, path, o.strict)), nil
	case TargetSums:
		return domain.FromResult(o.VerifySums(path)), nil
	case TargetRepo:
		return o.Run(ctx, path)
	default:
		return nil, fmt.Errorf("%w at %s", domain.ErrUnknownTarget, path)
	}
}
