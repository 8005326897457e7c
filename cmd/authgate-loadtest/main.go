// Command authgate-loadtest drives uniqueness checks and logins against an
// auth backend and reports latency percentiles.
//
// With no -backend-url it starts the in-process dev server. With no Redis
// address (flag or REDIS_ADDR) and -cache set it uses miniredis.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/internal/devserver"
	"github.com/MrEthical07/authgate/internal/envconfig"
	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/internal/stores"
	"github.com/MrEthical07/authgate/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	settings, err := envconfig.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load settings: %v\n", err)
		os.Exit(2)
	}

	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (check + login)")
		backendURL  = flag.String("backend-url", "", "auth API root; if empty, an in-process dev server is used")
		redisAddr   = flag.String("redis-addr", settings.RedisAddr, "redis address for the availability cache")
		useCache    = flag.Bool("cache", false, "enable the availability cache")
		delay       = flag.Duration("delay", settings.DevDelay, "artificial dev server latency")
		takenRatio  = flag.Float64("taken-ratio", 0.3, "share of checks for an existing username")
		showMetrics = flag.Bool("metrics", false, "print engine metrics in Prometheus text format")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	logger, err := settings.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	seeds := devserver.DefaultSeed()

	url := *backendURL
	if url == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			fmt.Fprintf(os.Stderr, "token secret: %v\n", err)
			os.Exit(1)
		}
		srv, err := devserver.New(devserver.Config{
			Delay:       *delay,
			TokenSecret: secret,
			BcryptCost:  bcrypt.MinCost,
			Seed:        seeds,
			Logger:      logger.Named("devserver"),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "dev server: %v\n", err)
			os.Exit(1)
		}
		hs := httptest.NewServer(srv)
		defer hs.Close()
		url = hs.URL
		fmt.Printf("using in-process dev server at %s\n", url)
	} else {
		fmt.Printf("using backend at %s\n", url)
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if *useCache {
		addr := *redisAddr
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
				os.Exit(1)
			}
			addr = mr.Addr()
			client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
			cleanup = func() {
				_ = client.Close()
				mr.Close()
			}
			fmt.Printf("using miniredis at %s\n", addr)
		} else {
			client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
			cleanup = func() { _ = client.Close() }
			fmt.Printf("using redis at %s\n", addr)
		}
		defer cleanup()
	}

	cfg := settings.Config()
	cfg.Backend.BaseURL = url
	cfg.Cache.Enabled = client != nil
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	builder := authgate.New().WithConfig(cfg).WithLogger(logger)
	if client != nil {
		builder = builder.WithRedis(client)
	}
	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	api, err := authapi.NewClient(url, authapi.WithLogger(logger.Named("authapi")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "api client: %v\n", err)
		os.Exit(1)
	}
	var cache *stores.AvailabilityCache
	if client != nil {
		cache = stores.NewAvailabilityCache(client, cfg.Cache.RedisPrefix, cfg.Cache.TTL)
	}

	checkStats := runCheckPhase(ctx, api, cache, seeds, *takenRatio, *ops, *concurrency, logger)
	loginStats := runLoginPhase(ctx, engine, seeds, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("check", checkStats)
	printStats("login", loginStats)

	if *showMetrics {
		fmt.Println("---- metrics ----")
		fmt.Print(prometheus.NewExporter(engine).Render())
	}
}

// runCheckPhase runs the uniqueness-check flow directly, the same path a
// debounced field takes once its timer fires.
func runCheckPhase(ctx context.Context, api *authapi.Client, cache *stores.AvailabilityCache, seeds []devserver.SeedUser, takenRatio float64, ops, concurrency int, logger *zap.Logger) phaseStats {
	deps := flows.AvailabilityDeps{
		Check: func(ctx context.Context, kind flows.AvailabilityKind, value string) (bool, error) {
			resp, err := api.CheckUsername(ctx, value)
			return resp.Exists, err
		},
		Warn: func(msg string, kv ...any) { logger.Sugar().Warnw(msg, kv...) },
	}
	if cache != nil {
		deps.CacheTaken = func(ctx context.Context, kind flows.AvailabilityKind, value string) (bool, error) {
			return cache.Taken(ctx, stores.Kind(kind), value)
		}
		deps.CacheMarkTaken = func(ctx context.Context, kind flows.AvailabilityKind, value string) error {
			return cache.MarkTaken(ctx, stores.Kind(kind), value)
		}
	}

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				value := fmt.Sprintf("user_%d_%d", worker, i)
				if r.Float64() < takenRatio {
					value = seeds[r.Intn(len(seeds))].User.Username
				}
				t0 := time.Now()
				res := flows.RunAvailabilityCheck(ctx, flows.KindUsername, value, deps)
				d := time.Since(t0)
				if res.Status == flows.StatusCheckFailed {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runLoginPhase gives each worker its own controller, as each login screen
// would have.
func runLoginPhase(ctx context.Context, engine *authgate.Engine, seeds []devserver.SeedUser, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			lc, err := engine.NewLoginController()
			if err != nil {
				atomic.AddInt64(&failures, 1)
				return
			}
			defer lc.Close()

			seed := seeds[worker%len(seeds)]
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := lc.AttemptLogin(ctx, seed.User.Username, seed.Password)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
