package pipeline

import (
	"context"
	"image"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/mrz-visa-mcp/internal/imaging"
)

// BatchInput is one image of a batch scan.
type BatchInput struct {
	Name  string
	Image image.Image
}

// BatchItem is the outcome of one batch entry. Exactly one of Result and
// Err is set.
type BatchItem struct {
	Name   string  `json:"name"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// ErrorText returns the error text, or "" on success.
func (b BatchItem) ErrorText() string {
	if b.Err == nil {
		return ""
	}
	return b.Err.Error()
}

// ScanBatch scans every input concurrently with at most limit scans in
// flight. A limit of zero or less uses GOMAXPROCS.
//
// Items are returned in input order. A failed scan is recorded on its item
// and does not stop the others. The returned error is non-nil only when ctx
// is cancelled; items not started by then carry ctx.Err().
func (s *Scanner) ScanBatch(ctx context.Context, inputs []BatchInput, limit int) ([]BatchItem, error) {
	name := func(i int) string { return inputs[i].Name }
	return s.runBatch(ctx, len(inputs), limit, name, func(ctx context.Context, item *BatchItem, i int) {
		item.Result, item.Err = s.Scan(ctx, inputs[i].Image)
	})
}

// ScanFiles loads and scans image files concurrently. Load failures are
// recorded on the item like scan failures.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string, limit int) ([]BatchItem, error) {
	name := func(i int) string { return filepath.Base(paths[i]) }
	return s.runBatch(ctx, len(paths), limit, name, func(ctx context.Context, item *BatchItem, i int) {
		img, err := imaging.LoadImage(paths[i])
		if err != nil {
			item.Err = err
			return
		}
		item.Result, item.Err = s.Scan(ctx, img)
	})
}

// runBatch names every item up front so entries skipped after
// cancellation still identify their input.
func (s *Scanner) runBatch(ctx context.Context, n, limit int, name func(int) string, scan func(context.Context, *BatchItem, int)) ([]BatchItem, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	items := make([]BatchItem, n)
	for i := range items {
		items[i].Name = name(i)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			items[i].Err = err
			continue
		}
		g.Go(func() error {
			scan(gctx, &items[i], i)
			return nil
		})
	}

	_ = g.Wait()
	s.log.Info("batch finished", "items", n, "limit", limit)
	return items, ctx.Err()
}
