package pagemap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/steve-z-wang/webtask-sub000/internal/ax"
	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/filter"
	"github.com/steve-z-wang/webtask-sub000/internal/tree"
)

// Source supplies the raw snapshots of one page.
type Source interface {
	DOMSnapshot(ctx context.Context) (*proto.DOMSnapshotCaptureSnapshotResult, error)
	AXTree(ctx context.Context) (*proto.AccessibilityGetFullAXTreeResult, error)
	URL() string
}

// Builder decodes, filters, numbers and serializes snapshots. It holds no
// per-build state and is safe for concurrent use.
type Builder struct {
	rules  *filter.Rules
	maxLen int
	logger *slog.Logger
}

type Option func(*Builder)

// WithRules replaces the default filter rules.
func WithRules(r *filter.Rules) Option {
	return func(b *Builder) { b.rules = r }
}

// WithMaxValueLength sets the rune count above which values are truncated.
// n <= 0 disables truncation.
func WithMaxValueLength(n int) Option {
	return func(b *Builder) { b.maxLen = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{maxLen: DefaultMaxValueLength}
	for _, opt := range opts {
		opt(b)
	}
	if b.rules == nil {
		b.rules = filter.Default()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Rules returns the filter rules the builder applies.
func (b *Builder) Rules() *filter.Rules { return b.rules }

// Build captures the snapshots mode needs from src and builds a page map.
// Errors come only from src.
func (b *Builder) Build(ctx context.Context, src Source, mode Mode) (*PageMap, error) {
	if mode == "" {
		mode = ModeAccessibility
	}
	if !mode.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	domSnap, err := src.DOMSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture dom snapshot: %w", err)
	}
	var axTree *proto.AccessibilityGetFullAXTreeResult
	if mode == ModeAccessibility {
		if axTree, err = src.AXTree(ctx); err != nil {
			return nil, fmt.Errorf("capture accessibility tree: %w", err)
		}
	}

	pm := b.BuildSnapshot(domSnap, axTree, mode)
	pm.URL = src.URL()
	return pm, nil
}

// BuildSnapshot builds a page map from already captured snapshots. Any mode
// other than ModeDOM builds from the accessibility tree. It never fails.
func (b *Builder) BuildSnapshot(domSnap *proto.DOMSnapshotCaptureSnapshotResult, axTree *proto.AccessibilityGetFullAXTreeResult, mode Mode) *PageMap {
	start := time.Now()
	if mode != ModeDOM {
		mode = ModeAccessibility
	}
	pm := &PageMap{BuildID: uuid.NewString(), Mode: mode}
	doc := dom.Decode(domSnap)

	var (
		ids   assignment
		empty bool
	)
	switch mode {
	case ModeDOM:
		root := b.rules.DOM(doc.Root)
		pm.Stats.Decoded = doc.Len()
		pm.Stats.Kept = tree.Count(root)
		if empty = len(root.Children()) == 0; !empty {
			ids = assignDOMIDs(root)
			pm.Text = serializeDOM(root, func(n *dom.Node) string { return ids.labels[n.ID] }, b.maxLen)
		}
	default:
		t := ax.Decode(axTree)
		root := b.rules.AX(t.Root)
		pm.Stats.Decoded = t.Len()
		pm.Stats.Kept = tree.Count(root)
		if empty = len(root.Children()) == 0; !empty {
			ids = assignAXIDs(root, doc, b.rules)
			pm.Text = serializeAX(root, func(n *ax.Node) string { return ids.labels[n.ID] }, b.rules, b.maxLen)
		}
	}

	if empty {
		pm.Empty = true
		pm.Text = EmptyDiagnostic
	}
	pm.Locators = &Locators{buildID: pm.BuildID, doc: doc, targets: ids.targets, order: ids.order}
	pm.Stats.Identifiers = len(ids.labels)
	pm.Stats.Resolvable = len(ids.order)
	pm.Stats.Duration = time.Since(start)

	b.logger.Debug("page map built",
		"build_id", pm.BuildID,
		"mode", mode,
		"decoded", pm.Stats.Decoded,
		"kept", pm.Stats.Kept,
		"identifiers", pm.Stats.Identifiers,
		"resolvable", pm.Stats.Resolvable,
		"empty", pm.Empty,
		"duration", pm.Stats.Duration,
	)
	return pm
}
