// Package importer reconciles suite and case descriptors into a project's
// catalog. One import runs in one transaction: re-running the same input
// creates nothing new, and any failure leaves the catalog untouched.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lherron/caseq/internal/catalog"
	"github.com/lherron/caseq/internal/convert"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/logging"
	"github.com/lherron/caseq/internal/payload"
	"github.com/lherron/caseq/internal/source"
	"github.com/lherron/caseq/internal/store"
	"github.com/lherron/caseq/internal/testrail"
)

// Writer is the transactional surface an import needs. *store.Tx satisfies it.
type Writer interface {
	catalog.Source
	ResolveProject(ctx context.Context, ref string) (*domain.Project, error)
	InsertSuite(ctx context.Context, s *domain.Suite) error
	InsertCases(ctx context.Context, cases []*domain.TestCase) error
	UpdateCase(ctx context.Context, tc *domain.TestCase, changes []string) error
	LogImportCompleted(ctx context.Context, actorUUID, projectUUID string, stats map[string]any) error
}

// Options controls a single import call
type Options struct {
	// Project is a project UUID, friendly ID or slug
	Project   string
	ActorUUID string
	// OverwriteExisting replaces the content of matching cases instead of skipping them
	OverwriteExisting bool
	// DryRun runs the whole import and then rolls it back
	DryRun bool
	// Diff records a unified diff for every overwritten case
	Diff bool
	// Now overrides the run timestamp
	Now func() time.Time
}

// Result reports what an import did. For a dry run it reports what the
// import would have done.
type Result struct {
	ProjectUUID   string       `json:"project_uuid"`
	ProjectID     string       `json:"project_id"`
	Created       int          `json:"created"`
	Skipped       int          `json:"skipped"`
	Updated       int          `json:"updated"`
	Ignored       int          `json:"ignored"`
	SuitesCreated int          `json:"suites_created"`
	SuitesSkipped int          `json:"suites_skipped"`
	DryRun        bool         `json:"dry_run"`
	Changes       []CaseChange `json:"changes,omitempty"`
}

// CaseChange previews an overwrite of one existing case
type CaseChange struct {
	CaseID string   `json:"case_id"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
	Diff   string   `json:"diff,omitempty"`
}

// errDryRun unwinds the transaction of a dry run
var errDryRun = errors.New("dry run")

// Engine runs imports against a store
type Engine struct {
	store     *store.Store
	converter *convert.Converter
	maxBytes  int64
	logger    *slog.Logger
}

// New creates an engine. maxBytes caps every input, raw and decompressed.
func New(s *store.Store, converter *convert.Converter, maxBytes int64) *Engine {
	return &Engine{
		store:     s,
		converter: converter,
		maxBytes:  maxBytes,
		logger:    logging.New("importer"),
	}
}

// ImportTestRail reads a TestRail XML export and imports it
func (e *Engine) ImportTestRail(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	in, err := source.Read(r, e.maxBytes)
	if err != nil {
		return nil, err
	}
	tree, err := testrail.Parse(bytes.NewReader(in.Data))
	if err != nil {
		return nil, err
	}
	batch, err := e.converter.Convert(tree)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("converted testrail export",
		"suite", tree.Name, "suites", len(batch.Suites), "cases", len(batch.Cases),
		"compression", in.Compression, "bytes", in.RawSize)
	return e.Apply(ctx, batch, opts)
}

// ImportPayload reads a JSON or YAML suite/case payload and imports it
func (e *Engine) ImportPayload(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	in, err := source.Read(r, e.maxBytes)
	if err != nil {
		return nil, err
	}
	format, err := source.DetectFormat(in.Data)
	if err != nil {
		return nil, err
	}
	if format == source.FormatXML {
		return nil, &domain.ParseError{Format: "payload", Err: errors.New("XML input is a TestRail export; use the testrail importer")}
	}
	batch, err := payload.Parse(in.Data, format)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, batch, opts)
}

// Apply reconciles a batch into the project in one transaction
func (e *Engine) Apply(ctx context.Context, batch *domain.Batch, opts Options) (*Result, error) {
	if batch == nil {
		return nil, errors.New("import batch is nil")
	}
	if opts.ActorUUID == "" {
		return nil, fmt.Errorf("%w: no actor given", domain.ErrActorNotFound)
	}

	now := time.Now().UTC()
	if opts.Now != nil {
		now = opts.Now().UTC()
	}

	var result *Result
	err := e.store.RunInTx(ctx, func(tx *store.Tx) error {
		res, err := run(ctx, tx, batch, opts, now, e.logger)
		if err != nil {
			return err
		}
		result = res
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	e.logger.Info("import finished",
		"project", result.ProjectID,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped,
		"ignored", result.Ignored, "suites_created", result.SuitesCreated,
		"dry_run", result.DryRun)
	return result, nil
}

// run is the body of one import transaction
func run(ctx context.Context, w Writer, batch *domain.Batch, opts Options, now time.Time, logger *slog.Logger) (*Result, error) {
	project, err := w.ResolveProject(ctx, opts.Project)
	if err != nil {
		return nil, err
	}

	snap, err := catalog.Load(ctx, w, project.UUID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load catalog", Err: err}
	}

	m := &merger{
		w:      w,
		snap:   snap,
		opts:   opts,
		now:    now,
		logger: logger,
		result: &Result{ProjectUUID: project.UUID, ProjectID: project.ID, DryRun: opts.DryRun},
	}

	if err := m.reconcileSuites(ctx, batch.Suites, batch.Hierarchical); err != nil {
		return nil, err
	}
	if err := m.mergeCases(ctx, batch.Cases); err != nil {
		return nil, err
	}

	stats := map[string]any{
		"created":        m.result.Created,
		"updated":        m.result.Updated,
		"skipped":        m.result.Skipped,
		"ignored":        m.result.Ignored,
		"suites_created": m.result.SuitesCreated,
		"suites_skipped": m.result.SuitesSkipped,
		"overwrite":      opts.OverwriteExisting,
	}
	if err := w.LogImportCompleted(ctx, opts.ActorUUID, project.UUID, stats); err != nil {
		return nil, &domain.PersistenceError{Op: "log import", Err: err}
	}
	return m.result, nil
}

// merger carries the state of one reconciliation pass
type merger struct {
	w      Writer
	snap   *catalog.Snapshot
	opts   Options
	now    time.Time
	logger *slog.Logger
	result *Result
}
