// Package logs reads back the records the blob log sink wrote.
package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"mealcart/internal/config"
	"mealcart/internal/logsink"
)

type Entry struct {
	Time  time.Time      `json:"ts"`
	Level string         `json:"level"`
	Msg   string         `json:"msg"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	if ts, ok := all["ts"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fmt.Errorf("bad timestamp %q: %w", ts, err)
		}
		e.Time = t
	}
	e.Level, _ = all["level"].(string)
	e.Msg, _ = all["msg"].(string)
	delete(all, "ts")
	delete(all, "level")
	delete(all, "msg")
	if len(all) > 0 {
		e.Attrs = all
	}
	return nil
}

// Reader lists and downloads the sink's date-foldered blobs.
type Reader struct {
	client    *azblob.Client
	container string
}

func NewReader(cfg config.LogSinkConfig) (*Reader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("log sink is not configured")
	}
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	client, err := azblob.NewClientWithSharedKeyCredential(fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName), cred, nil)
	if err != nil {
		return nil, err
	}
	return &Reader{client: client, container: cfg.Container}, nil
}

// Since returns entries at or after since with at least minLevel, oldest
// first.
func (r *Reader) Since(ctx context.Context, since time.Time, minLevel slog.Level) ([]Entry, error) {
	var all []Entry
	for _, prefix := range datePrefixes(since, time.Now()) {
		pager := r.client.NewListBlobsFlatPager(r.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list log blobs: %w", err)
			}
			for _, item := range page.Segment.BlobItems {
				if item.Properties != nil && item.Properties.LastModified != nil && item.Properties.LastModified.Before(since) {
					continue
				}
				entries, err := r.read(ctx, *item.Name, since, minLevel)
				if err != nil {
					slog.WarnContext(ctx, "skipping unreadable log blob", "blob", *item.Name, "error", err)
					continue
				}
				all = append(all, entries...)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })
	return all, nil
}

func (r *Reader) read(ctx context.Context, name string, since time.Time, minLevel slog.Level) ([]Entry, error) {
	resp, err := r.client.DownloadStream(ctx, r.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	defer resp.Body.Close()
	return parse(resp.Body, since, minLevel)
}

func datePrefixes(since, until time.Time) []string {
	var prefixes []string
	current := since.UTC().Truncate(24 * time.Hour)
	end := until.UTC().Truncate(24 * time.Hour)
	for !current.After(end) {
		prefixes = append(prefixes, logsink.FormatDateFolder(current.Year(), int(current.Month()), current.Day())+"/")
		current = current.Add(24 * time.Hour)
	}
	return prefixes
}

func parse(r io.Reader, since time.Time, minLevel slog.Level) ([]Entry, error) {
	var out []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			// partial appends happen when the process dies mid flush
			continue
		}
		if e.Time.Before(since) || levelOf(e.Level) < minLevel {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}

func levelOf(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
