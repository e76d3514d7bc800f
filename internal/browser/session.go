package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"dailycast/internal/logging"
	"dailycast/internal/services"
)

const defaultNavigationTimeout = 90 * time.Second

// blockedResourceTypes are aborted before leaving the browser. The scrape
// only needs markup and the origin's JSON endpoints, so images, styling and
// page scripts are dead weight on every navigation.
var blockedResourceTypes = map[network.ResourceType]struct{}{
	network.ResourceTypeImage:      {},
	network.ResourceTypeStylesheet: {},
	network.ResourceTypeFont:       {},
	network.ResourceTypeScript:     {},
}

// fetchScript runs inside the rendered page so the request carries the
// page's cookies and the XHR marker header the origin checks for.
const fetchScript = `fetch(%q, {headers: {"X-Requested-With": "XMLHttpRequest"}}).then((resp) => {
	if (!resp.ok) {
		throw new Error("fetch failed with status " + resp.status);
	}
	return resp.text();
})`

// Session is one live browser. It satisfies origin.Navigator; all work runs
// against the browser's own context so a dead browser fails fast rather
// than hanging callers.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger

	// navMu serializes navigations so concurrent locale runs sharing the
	// session cannot interleave a navigation with a markup capture.
	// In-page fetches carry the browser's cookies regardless of the
	// current document and need no serialization.
	navMu sync.Mutex
}

func launchChrome(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.ChromeBinary != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromeBinary))
	}

	// The allocator hangs off the background context so the browser
	// outlives whichever request triggered the launch.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	launchCtx, launchCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer launchCancel()
	stop := context.AfterFunc(ctx, launchCancel)
	defer stop()

	if err := chromedp.Run(launchCtx, fetch.Enable()); err != nil {
		browserCancel()
		allocCancel()
		return nil, services.Wrap(services.ErrSessionLost, "browser", "launch", "start chrome", err)
	}
	installRequestFilter(browserCtx, logger)

	timeout := opts.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	return &Session{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// installRequestFilter aborts blocked resource types and lets everything
// else through. Decisions run off the listener goroutine because the
// executor round-trips to the browser.
func installRequestFilter(ctx context.Context, logger *slog.Logger) {
	chromedp.ListenTarget(ctx, func(ev any) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(ctx)
			execCtx := cdp.WithExecutor(ctx, c.Target)
			if _, blocked := blockedResourceTypes[paused.ResourceType]; blocked {
				if err := fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx); err != nil && ctx.Err() == nil {
					logger.Debug("failed to abort request", logging.String("url", paused.Request.URL), logging.Error(err))
				}
				return
			}
			if err := fetch.ContinueRequest(paused.RequestID).Do(execCtx); err != nil && ctx.Err() == nil {
				logger.Debug("failed to continue request", logging.String("url", paused.Request.URL), logging.Error(err))
			}
		}()
	})
}

// Alive reports whether the browser connection is still up.
func (s *Session) Alive() bool {
	return s.ctx.Err() == nil
}

// Done is closed when the browser connection drops.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Session) close() {
	s.cancel()
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// runContext bounds one browser operation by the navigation timeout and the
// caller's context while staying on the browser's context chain.
func (s *Session) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) classify(operation, detail string, err error) error {
	marker := services.ErrTransient
	if !s.Alive() {
		marker = services.ErrSessionLost
	}
	return services.Wrap(marker, "browser", operation, detail, err)
}

// NavigateAndGetMarkup loads url under a fresh user agent and returns the
// rendered document markup once the body is ready.
func (s *Session) NavigateAndGetMarkup(ctx context.Context, url string) (string, error) {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	var markup string
	err := chromedp.Run(runCtx,
		emulation.SetUserAgentOverride(randomUserAgent()),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return "", s.classify("navigate", url, err)
	}
	s.logger.Debug("page loaded", logging.String("url", url), logging.Int("markup_bytes", len(markup)))
	return markup, nil
}

// FetchText GETs url from inside the current page and returns the body.
func (s *Session) FetchText(ctx context.Context, url string) (string, error) {
	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	var body string
	script := fmt.Sprintf(fetchScript, url)
	err := chromedp.Run(runCtx, chromedp.Evaluate(script, &body,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return "", s.classify("fetch", url, err)
	}
	return body, nil
}

// FetchJSON GETs url from inside the current page and decodes the body
// into v.
func (s *Session) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := s.FetchText(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return services.Wrap(services.ErrMalformed, "browser", "fetch", url, err)
	}
	return nil
}
