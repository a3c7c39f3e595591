// notifier.go turns a potential storm of per-image provider failures into at
// most one user-visible signal per cooldown window. Only genuine 5xx-class
// failures reach this path; per-image placeholders stay with the UI.
package artwork

import (
	"io"
	"log"
	"log/slog"
	"sync"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ProxyError describes a provider-side failure worth telling the user about.
type ProxyError struct {
	Provider   string
	StatusCode int
	Detail     string
	At         time.Time
}

// ProxyErrorNotifier debounces server-error signals: however many distinct
// keys fail within the cooldown window, at most one emission goes out.
type ProxyErrorNotifier struct {
	cooldown time.Duration
	now      func() time.Time
	log      *slog.Logger

	mu          sync.Mutex
	lastEmitted time.Time
	listeners   []func(ProxyError)
	suppressed  int

	sender      *router.ServiceRouter // optional push delivery
	sendTimeout time.Duration
}

// NewProxyErrorNotifier creates a notifier with the given cooldown. The
// clock is injectable for tests.
func NewProxyErrorNotifier(cooldown time.Duration, now func() time.Time, log *slog.Logger) *ProxyErrorNotifier {
	if now == nil {
		now = time.Now
	}
	return &ProxyErrorNotifier{
		cooldown: cooldown,
		now:      now,
		log:      log.With("component", "notifier"),
	}
}

// EnablePush configures push delivery of emitted signals to the given
// shoutrrr service URLs, in addition to in-process listeners.
func (n *ProxyErrorNotifier) EnablePush(urls []string, timeout time.Duration) error {
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return err
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	n.mu.Lock()
	n.sender = sender
	n.sendTimeout = timeout
	n.mu.Unlock()
	return nil
}

// Subscribe registers a listener for debounced proxy-error signals.
// Listeners are invoked on the reporting goroutine and must not block.
func (n *ProxyErrorNotifier) Subscribe(listener func(ProxyError)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, listener)
	n.mu.Unlock()
}

// Report emits the error to listeners unless a signal already went out
// within the cooldown window.
func (n *ProxyErrorNotifier) Report(pe ProxyError) {
	if pe.At.IsZero() {
		pe.At = n.now()
	}

	n.mu.Lock()
	if !n.lastEmitted.IsZero() && n.now().Sub(n.lastEmitted) < n.cooldown {
		n.suppressed++
		suppressed := n.suppressed
		n.mu.Unlock()
		n.log.Debug("Suppressed proxy error within cooldown",
			"provider", pe.Provider,
			"status_code", pe.StatusCode,
			"suppressed_in_window", suppressed)
		return
	}
	n.lastEmitted = n.now()
	n.suppressed = 0
	listeners := make([]func(ProxyError), len(n.listeners))
	copy(listeners, n.listeners)
	sender := n.sender
	n.mu.Unlock()

	n.log.Warn("Artwork provider reporting server errors",
		"provider", pe.Provider,
		"status_code", pe.StatusCode,
		"detail", pe.Detail)

	for _, listener := range listeners {
		listener(pe)
	}

	if sender != nil {
		go n.push(sender, pe)
	}
}

func (n *ProxyErrorNotifier) push(sender *router.ServiceRouter, pe ProxyError) {
	params := stypes.Params{}
	params.SetTitle("Artwork provider unavailable")
	body := pe.Detail
	if body == "" {
		body = pe.Provider + " is returning server errors; artwork fetches will retry"
	}
	for _, err := range sender.Send(body, &params) {
		if err != nil {
			n.log.Warn("Failed to push proxy-error notification", "error", err)
		}
	}
}
