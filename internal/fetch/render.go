package fetch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// MinRenderInterval spaces out headless page loads.
const MinRenderInterval = 2 * time.Second

// RenderFetcher loads pages in headless Chrome and returns the rendered
// HTML. The ESPN scoreboard only lists games once its scripts have run.
type RenderFetcher struct {
	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewRenderFetcher starts a Chrome allocator. Call Close when done.
func NewRenderFetcher() *RenderFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &RenderFetcher{
		interval: MinRenderInterval,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases the browser.
func (r *RenderFetcher) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Fetch renders url and returns the outer HTML of the document.
func (r *RenderFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	r.wait(ctx)
	defer func() {
		r.mu.Lock()
		r.lastRequest = time.Now()
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()

	// Tie the browser tab to the caller's context as well.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-browserCtx.Done():
		}
	}()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp error: %v: %w", err, ErrTransient)
	}
	if htmlContent == "" {
		return nil, fmt.Errorf("empty HTML content returned for %s", url)
	}
	return []byte(htmlContent), nil
}

func (r *RenderFetcher) wait(ctx context.Context) {
	r.mu.Lock()
	last := r.lastRequest
	r.mu.Unlock()
	if last.IsZero() {
		return
	}
	if elapsed := time.Since(last); elapsed < r.interval {
		waitTime := r.interval - elapsed
		log.Printf("[fetch] Rate limiting: waiting %v before next render", waitTime)
		select {
		case <-ctx.Done():
		case <-time.After(waitTime):
		}
	}
}
