package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/estate"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the number of pages a browser renders before it is
// replaced by a fresh one.
const DefaultMaxPages = 200

// browser owns a headless Chrome and swaps it for a new one every
// maxPages pages, since Chrome memory grows over long runs.
type browser struct {
	maxPages int

	mu       sync.Mutex
	current  *rod.Browser
	launcher *launcher.Launcher
	pages    int
	// inFlight counts open pages per browser so a retired browser is only
	// closed once its last page is done.
	inFlight map[*rod.Browser]int
	retired  map[*rod.Browser]*launcher.Launcher
	closed   bool
}

func newBrowser(maxPages int) (*browser, error) {
	b := &browser{
		maxPages: maxPages,
		inFlight: make(map[*rod.Browser]int),
		retired:  make(map[*rod.Browser]*launcher.Launcher),
	}
	br, l, err := launch()
	if err != nil {
		return nil, err
	}
	b.current, b.launcher = br, l
	return b, nil
}

func launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}
	br := rod.New().ControlURL(u)
	if err := br.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return br, l, nil
}

// acquire returns the browser to open the next page in. Every acquire is
// paired with a release of the same browser.
func (b *browser) acquire() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, estate.Errorf(estate.EINVALID, "fetcher closed")
	}
	if b.maxPages > 0 && b.pages >= b.maxPages {
		b.recycle()
	}
	b.pages++
	b.inFlight[b.current]++
	return b.current, nil
}

func (b *browser) release(br *rod.Browser) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inFlight[br]--
	if b.inFlight[br] > 0 {
		return
	}
	delete(b.inFlight, br)
	if l, ok := b.retired[br]; ok {
		delete(b.retired, br)
		_ = br.Close()
		l.Kill()
	}
}

// recycle launches a replacement. On launch failure the old browser stays.
// Must be called with mu held.
func (b *browser) recycle() {
	br, l, err := launch()
	if err != nil {
		return
	}
	old, oldLauncher := b.current, b.launcher
	b.current, b.launcher, b.pages = br, l, 0

	if b.inFlight[old] > 0 {
		b.retired[old] = oldLauncher
		return
	}
	_ = old.Close()
	oldLauncher.Kill()
}

func (b *browser) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for br, l := range b.retired {
		_ = br.Close()
		l.Kill()
	}
	b.retired = nil

	err := b.current.Close()
	b.launcher.Kill()
	return err
}

func (b *browser) launcherPID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launcher.PID()
}
