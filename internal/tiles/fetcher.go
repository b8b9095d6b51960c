package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultTemplate is the upstream imagery service used when no template is
// configured. Note the {z}/{y}/{x} path order of the ArcGIS tile scheme.
const DefaultTemplate = "https://services.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"

// Progress reports fetch progress as (completed, total, message). It is
// always invoked from the goroutine that called Fetch, after every tile,
// with a monotonically increasing completed count.
type Progress func(completed, total int, message string)

// Options configures a Fetcher.
type Options struct {
	Template    string        // upstream URL template with {z}/{x}/{y} placeholders
	CacheRoot   string        // directory receiving the <z>/<x>/<y>.png pyramid
	UserAgent   string
	Workers     int           // bounded worker pool size, default 8
	Timeout     time.Duration // per-tile fetch timeout, default 5s
	RatePerSec  float64       // upstream request rate limit, default 16
}

// Stats summarizes one fetch run. Completed always equals the plan total:
// cached and failed tiles count as completed work.
type Stats struct {
	Completed int
	Fetched   int
	Cached    int
	Failed    int
}

// Fetcher downloads a planned tile pyramid into a local cache. Fetching is
// idempotent: tiles already on disk are skipped, so re-running the same
// plan after an interrupted or partially failed run only fetches what is
// missing. Individual tile failures are swallowed; a missing tile is a
// visual gap, not a pipeline failure.
type Fetcher struct {
	template  string
	root      string
	userAgent string
	workers   int
	client    *http.Client
	limiter   *rate.Limiter
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts Options) *Fetcher {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 16
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "arcsys-cli/1.0"
	}
	return &Fetcher{
		template:  opts.Template,
		root:      opts.CacheRoot,
		userAgent: opts.UserAgent,
		workers:   opts.Workers,
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Workers),
	}
}

type tileOutcome struct {
	z, x, y int
	fetched bool
	cached  bool
	failed  bool
}

// Fetch downloads every missing tile in the plan through a bounded worker
// pool. Per-tile outcomes are funneled through a channel and drained here,
// on the calling goroutine, which is the single consumer invoking the
// progress callback. Cancellation via ctx stops scheduling between tiles;
// tiles already written stay valid because each file is written atomically.
func (f *Fetcher) Fetch(ctx context.Context, plan *Plan, progress Progress) (*Stats, error) {
	if plan == nil || plan.Total == 0 {
		return nil, eris.Wrap(ErrEmptyCoverage, "tiles: nothing planned")
	}

	if progress != nil {
		progress(0, plan.Total, "Starting offline tile download...")
	}

	outcomes := make(chan tileOutcome, f.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	go func() {
		defer close(outcomes)
	schedule:
		for _, r := range plan.Ranges {
			for x := r.XMin; x <= r.XMax; x++ {
				for y := r.YMin; y <= r.YMax; y++ {
					if gctx.Err() != nil {
						break schedule
					}
					z, tx, ty := r.Zoom, x, y
					g.Go(func() error {
						outcomes <- f.fetchOne(gctx, z, tx, ty)
						return nil
					})
				}
			}
		}
		g.Wait() //nolint:errcheck
	}()

	stats := &Stats{}
	for o := range outcomes {
		stats.Completed++
		switch {
		case o.cached:
			stats.Cached++
		case o.failed:
			stats.Failed++
		default:
			stats.Fetched++
		}
		if progress != nil {
			msg := fmt.Sprintf("Tile z=%d, x=%d, y=%d (%d/%d)", o.z, o.x, o.y, stats.Completed, plan.Total)
			progress(stats.Completed, plan.Total, msg)
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, eris.Wrap(err, "tiles: fetch canceled")
	}

	zap.L().Info("tiles: fetch complete",
		zap.Int("total", plan.Total),
		zap.Int("fetched", stats.Fetched),
		zap.Int("cached", stats.Cached),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// fetchOne fetches a single tile unless it is already cached. Every
// failure mode (rate-limiter abort, request error, non-200, I/O) degrades
// to a failed outcome; errors never propagate past this point.
func (f *Fetcher) fetchOne(ctx context.Context, z, x, y int) tileOutcome {
	out := tileOutcome{z: z, x: x, y: y}

	path := filepath.Join(f.root, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".png")
	if _, err := os.Stat(path); err == nil {
		out.cached = true
		return out
	}

	if err := f.limiter.Wait(ctx); err != nil {
		out.failed = true
		return out
	}

	data, err := f.download(ctx, TileURL(f.template, z, x, y))
	if err != nil {
		zap.L().Debug("tiles: tile fetch failed",
			zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
			zap.Error(err),
		)
		out.failed = true
		return out
	}

	if err := writeFileAtomic(path, data); err != nil {
		zap.L().Debug("tiles: tile write failed",
			zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
			zap.Error(err),
		)
		out.failed = true
		return out
	}

	out.fetched = true
	return out
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: fetch tile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("tiles: upstream returned %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so concurrent readers never observe a partial
// tile and an aborted run leaves no corrupt cache entries.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return eris.Wrap(err, "create temp tile")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "write temp tile")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "close temp tile")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrapf(err, "rename tile into %s", path)
	}
	return nil
}

// TileURL substitutes z/x/y into a URL template.
func TileURL(template string, z, x, y int) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	).Replace(template)
}

// LocalTemplate returns the file URL template for a cache root, suitable
// for registering the pyramid as a tile layer.
func LocalTemplate(root string) string {
	return "file://" + filepath.ToSlash(root) + "/{z}/{x}/{y}.png"
}
