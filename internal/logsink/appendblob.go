// Package logsink ships structured log records to an Azure append blob.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"mealcart/internal/config"
)

const (
	defaultFlushEvery = 2 * time.Second
	// append blocks are capped at 4MiB
	maxBlock = 4 << 20
)

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

// Handler is a slog.Handler that batches JSON lines and appends them to a
// blob every flush interval.
type Handler struct {
	ab     appender
	level  slog.Leveler
	attrs  []groupedAttr
	groups []string
	shared *shared
}

// groupedAttr remembers the groups that were open when WithAttrs was called.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

type shared struct {
	ch     chan []byte
	done   chan struct{}
	wg     sync.WaitGroup
	ticker *time.Ticker
	once   sync.Once
}

// New creates the blob if needed and starts the background flusher. An
// empty blob name becomes "YYYY/MM/DD/<hostname>.jsonl".
func New(ctx context.Context, cfg config.LogSinkConfig, level slog.Leveler) (*Handler, error) {
	if !cfg.Enabled() {
		return nil, errors.New("logsink requires an account name, account key and container")
	}
	blobName := cfg.BlobName
	if blobName == "" {
		host, _ := os.Hostname()
		now := time.Now().UTC()
		blobName = FormatDateFolder(now.Year(), int(now.Month()), now.Day()) + "/" + host + ".jsonl"
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create log sink credential: %w", err)
	}
	// blob names may contain slashes, so only the container is escaped
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" + url.PathEscape(cfg.Container) + "/" + blobName
	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create append blob client: %w", err)
	}
	if _, err := ab.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
		return nil, fmt.Errorf("failed to create log blob %s: %w", blobName, err)
	}
	return newHandler(ab, level, defaultFlushEvery), nil
}

func newHandler(ab appender, level slog.Leveler, flushEvery time.Duration) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	s := &shared{
		ch:     make(chan []byte, 1024),
		done:   make(chan struct{}),
		ticker: time.NewTicker(flushEvery),
	}
	h := &Handler{ab: ab, level: level, shared: s}
	s.wg.Add(1)
	go h.loop()
	return h
}

// Close flushes anything buffered. Records logged afterwards are dropped.
func (h *Handler) Close() error {
	h.shared.once.Do(func() {
		close(h.shared.done)
		h.shared.wg.Wait()
		h.shared.ticker.Stop()
	})
	return nil
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ev := make(map[string]any, r.NumAttrs()+len(h.attrs)+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	for _, ga := range h.attrs {
		addAttr(nested(ev, ga.groups), ga.attr)
	}
	if r.NumAttrs() > 0 {
		target := nested(ev, h.groups)
		r.Attrs(func(a slog.Attr) bool {
			addAttr(target, a)
			return true
		})
	}

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	select {
	case <-h.shared.done:
		return nil
	default:
	}
	select {
	case h.shared.ch <- b.Bytes():
	default:
		// full; never block the request path on log shipping
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, groupedAttr{groups: h.groups, attr: a})
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(slices.Clone(h.groups), name)
	return &h2
}

// nested returns the map at path under ev, creating it as needed.
func nested(ev map[string]any, path []string) map[string]any {
	m := ev
	for _, g := range path {
		child, ok := m[g].(map[string]any)
		if !ok {
			child = map[string]any{}
			m[g] = child
		}
		m = child
	}
	return m
}

func addAttr(m map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}
		target := m
		if a.Key != "" {
			target = nested(m, []string{a.Key})
		}
		for _, ga := range group {
			addAttr(target, ga)
		}
		return
	}
	if err, ok := a.Value.Any().(error); ok {
		m[a.Key] = err.Error()
		return
	}
	m[a.Key] = a.Value.Any()
}

func (h *Handler) loop() {
	s := h.shared
	defer s.wg.Done()
	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := h.ab.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			// cannot log through slog here without recursing into ourselves
			fmt.Fprintf(os.Stderr, "logsink: failed to append %d bytes: %v\n", len(buf), err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case line := <-s.ch:
			if len(buf)+len(line) > maxBlock {
				flush()
			}
			buf = append(buf, line...)
		case <-s.ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case line := <-s.ch:
					if len(buf)+len(line) > maxBlock {
						flush()
					}
					buf = append(buf, line...)
				default:
					flush()
					return
				}
			}
		}
	}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
