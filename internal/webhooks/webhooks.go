// Package webhooks notifies configured endpoints after an import commits.
package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lherron/caseq/internal/logging"
	"golang.org/x/sync/errgroup"
)

// EventImportCompleted is the event name carried by every payload
const EventImportCompleted = "import.completed"

const (
	defaultTimeout     = 2 * time.Second
	defaultConcurrency = 4
)

// Payload is the JSON body posted to each endpoint
type Payload struct {
	Event         string    `json:"event"`
	ProjectID     string    `json:"project_id"`
	ProjectUUID   string    `json:"project_uuid"`
	Source        string    `json:"source"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Skipped       int       `json:"skipped"`
	Ignored       int       `json:"ignored"`
	SuitesCreated int       `json:"suites_created"`
	SuitesSkipped int       `json:"suites_skipped"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Delivery is the outcome of one POST
type Delivery struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Err    error  `json:"-"`
}

// Dispatcher posts payloads with bounded concurrency
type Dispatcher struct {
	client      *http.Client
	concurrency int
	log         *slog.Logger
}

// New returns a dispatcher whose requests time out after timeout.
// A non-positive timeout selects the default.
func New(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		client:      &http.Client{Timeout: timeout},
		concurrency: defaultConcurrency,
		log:         logging.New("webhooks"),
	}
}

// ResolveTargets expands the {project_id} template in each configured URL,
// then drops blanks, duplicates and anything that is not http(s).
func ResolveTargets(urls []string, p Payload) []string {
	expanded := make([]string, 0, len(urls))
	for _, raw := range urls {
		expanded = append(expanded, applyTemplate(raw, p))
	}
	return normalizeURLs(expanded)
}

// Dispatch posts p to every target and reports one delivery per URL in
// target order. Failures are logged, never returned: the import they
// describe has already committed.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []string, p Payload) []Delivery {
	if len(targets) == 0 {
		return nil
	}
	if p.Event == "" {
		p.Event = EventImportCompleted
	}

	body, err := json.Marshal(p)
	if err != nil {
		d.log.Warn("failed to encode webhook payload", "err", err)
		return nil
	}

	deliveries := make([]Delivery, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, target := range targets {
		g.Go(func() error {
			status, err := d.send(gctx, target, body)
			deliveries[i] = Delivery{URL: target, Status: status, Err: err}
			if err != nil {
				d.log.Warn("webhook delivery failed", "url", target, "project", p.ProjectID, "err", err)
			} else {
				d.log.Debug("webhook delivered", "url", target, "status", status)
			}
			return nil
		})
	}
	_ = g.Wait()
	return deliveries
}

func (d *Dispatcher) send(ctx context.Context, target string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caseq-Event", EventImportCompleted)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.StatusCode, nil
}

func applyTemplate(raw string, p Payload) string {
	return strings.ReplaceAll(raw, "{project_id}", p.ProjectID)
}

func normalizeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" || !isValidURL(raw) {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, raw)
	}
	return out
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
