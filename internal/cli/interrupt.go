package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT or SIGTERM and tells the
// operator what was stopped. The notice is printed at most once.
type InterruptHandler struct {
	out    io.Writer
	cancel context.CancelFunc
	label  string
	once   sync.Once
	mu     sync.Mutex
	fired  bool
}

// NewInterruptHandler writes its notice to out, or stdout when out is nil.
func NewInterruptHandler(out io.Writer) *InterruptHandler {
	if out == nil {
		out = os.Stdout
	}
	return &InterruptHandler{out: out}
}

// HandleInterrupts derives a context that ends on the first signal. label
// names the work being stopped, e.g. "Server".
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, label string) context.Context {
	ctx, h.cancel = context.WithCancel(ctx)
	h.label = label

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) interrupt() {
	h.once.Do(func() {
		h.mu.Lock()
		h.fired = true
		h.mu.Unlock()
		h.notify()
	})
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *InterruptHandler) notify() {
	label := h.label
	if label == "" {
		label = "Operation"
	}
	notice := fmt.Sprintf("\n\n%s\n%s\n",
		FormatWarning(label+" interrupted!"),
		FormatInfo("Committed transactions are safe; nothing half-recorded was kept."))
	if _, err := io.WriteString(h.out, notice); err != nil {
		slog.Warn("Failed to write interrupt notice", "error", err)
	}
}

// WasInterrupted reports whether a signal arrived.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}
