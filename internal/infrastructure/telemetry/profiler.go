package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// defaultProfileRate applies to mutex and block sampling when unset
const defaultProfileRate = 5

// ProfilerConfig holds the Pyroscope continuous profiling settings
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// Contention adds mutex and block profiles to the cpu, alloc, inuse
	// and goroutine set.
	Contention bool
	SampleRate int
}

// Profiler owns the running Pyroscope session
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	mu       sync.Mutex
	stopped  bool
}

// NewProfiler starts pushing profiles to cfg.ServerAddress.
// When disabled it returns a profiler whose Stop does nothing.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, fmt.Errorf("profiler server address is required when profiling is enabled")
	}
	if cfg.ApplicationName == "" {
		return nil, fmt.Errorf("profiler application name is required when profiling is enabled")
	}

	types := ProfileTypes(cfg.Contention)
	if cfg.Contention {
		rate := cfg.SampleRate
		if rate <= 0 {
			rate = defaultProfileRate
		}
		runtime.SetMutexProfileFraction(rate)
		runtime.SetBlockProfileRate(rate)
	}

	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            logger.Named("pyroscope").Sugar(),
		Tags:              tags,
		ProfileTypes:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	p.profiler = session

	logger.Info("Continuous profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

// ProfileTypes lists the profiles pushed to the server
func ProfileTypes(contention bool) []pyroscope.ProfileType {
	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if contention {
		types = append(types,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		)
	}
	return types
}

// IsEnabled reports whether profiles are pushed
func (p *Profiler) IsEnabled() bool {
	return p != nil && p.profiler != nil
}

// Stop flushes the last profiles. Calling it twice is safe.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true
	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("stop profiler: %w", err)
	}
	p.logger.Info("Profiler stopped")
	return nil
}

// WithProfileLabels runs fn with pprof labels so its samples can be
// filtered by them. kv alternates label names and values; a trailing name
// without a value is dropped.
func WithProfileLabels(ctx context.Context, fn func(context.Context), kv ...string) {
	pairs := kv[:len(kv)-len(kv)%2]
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}
