// Package browser renders pages through headless Chrome for the rare
// fetches the site refuses to serve a plain HTTP client.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Options parameterise the pool.
type Options struct {
	Size       int
	NavTimeout time.Duration
	UserAgent  string
}

// Pool manages a fixed set of reusable browser contexts.
type Pool struct {
	opts        Options
	contexts    chan context.Context
	cancelFuncs map[context.Context]context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	initOnce    sync.Once
	initErr     error
	closed      bool
	logger      zerolog.Logger
}

// NewPool constructs a pool. Browsers are launched lazily on first use so
// deployments that never get blocked pay nothing.
func NewPool(opts Options, logger zerolog.Logger) *Pool {
	if opts.Size <= 0 {
		opts.Size = 2
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 20 * time.Second
	}
	return &Pool{
		opts:        opts,
		contexts:    make(chan context.Context, opts.Size),
		cancelFuncs: make(map[context.Context]context.CancelFunc),
		logger:      logger.With().Str("component", "browser_pool").Logger(),
	}
}

func (p *Pool) initialize() {
	ua := p.opts.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(ua),
	)

	p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)

	launched := 0
	for i := 0; i < p.opts.Size; i++ {
		ctx, cancel := chromedp.NewContext(p.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
			p.logger.Error().Err(err).Msg("failed to launch browser")
			cancel()
			continue
		}
		p.mu.Lock()
		p.cancelFuncs[ctx] = cancel
		p.mu.Unlock()
		p.contexts <- ctx
		launched++
	}

	if launched == 0 {
		p.initErr = fmt.Errorf("no browser instance could be launched")
		return
	}
	p.logger.Info().Int("size", launched).Msg("browser pool ready")
}

// acquire checks a browser context out of the pool.
func (p *Pool) acquire(ctx context.Context) (context.Context, func(), error) {
	p.initOnce.Do(p.initialize)
	if p.initErr != nil {
		return nil, nil, p.initErr
	}

	select {
	case browserCtx := <-p.contexts:
		release := func() {
			// Clear state before the context goes back into rotation.
			refreshCtx, cancel := context.WithTimeout(browserCtx, 3*time.Second)
			_ = chromedp.Run(refreshCtx,
				network.ClearBrowserCookies(),
				chromedp.Navigate("about:blank"),
			)
			cancel()
			p.contexts <- browserCtx
		}
		return browserCtx, release, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// FetchHTML navigates to url and returns the rendered page HTML.
func (p *Pool) FetchHTML(ctx context.Context, url string) (string, error) {
	browserCtx, release, err := p.acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire browser: %w", err)
	}
	defer release()

	navCtx, cancel := context.WithTimeout(browserCtx, p.opts.NavTimeout)
	defer cancel()

	var html string
	err = chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// Shutdown closes every browser instance.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for ctx, cancel := range p.cancelFuncs {
		cancel()
		delete(p.cancelFuncs, ctx)
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	for len(p.contexts) > 0 {
		<-p.contexts
	}
	p.logger.Info().Msg("browser pool shut down")
}
