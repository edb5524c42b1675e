package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

// Resolver maps outline identifiers to XPaths. *pagemap.PageMap,
// *pagemap.Locators and *pagemap.Session all satisfy it.
type Resolver interface {
	Resolve(id string) (string, error)
}

// Browser is the part of crawler.Browser the executor drives
type Browser interface {
	Page() *rod.Page
	Navigate(ctx context.Context, url string) error
}

// Options configures execution behavior
type Options struct {
	BaseDelay      time.Duration // Delay after each action unless the action sets its own
	ElementTimeout time.Duration // How long to wait for a resolved element to appear
	Verbose        bool
	Out            io.Writer // Progress output when Verbose, defaults to stdout
	Logger         *slog.Logger
}

// Failure records an action that did not complete
type Failure struct {
	Index  int
	Action Action
	Err    error
}

// Result holds the result of executing a batch of actions
type Result struct {
	Completed       []Action
	Failed          []Failure
	HitCheckpoint   bool
	CheckpointIndex int // Index of the checkpoint action that was hit (-1 if none)
	// Stale is set when an identifier did not belong to the current build. The
	// batch stops there; the page must be observed again before retrying.
	Stale      bool
	StaleIndex int
}

// Done reports whether every action ran without a checkpoint or stale stop
func (r *Result) Done() bool {
	return !r.HitCheckpoint && !r.Stale
}

// ExecuteBatch runs actions until a checkpoint is hit, an identifier turns out
// to be stale, or all actions complete. Other failures are recorded and the
// batch continues.
func ExecuteBatch(ctx context.Context, b Browser, r Resolver, actions []Action, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	result := &Result{CheckpointIndex: -1, StaleIndex: -1}

	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.Verbose {
			fmt.Fprintf(opts.Out, "  [%d/%d] %s", i+1, len(actions), action)
		}

		err := Execute(ctx, b, r, action, opts)
		if err != nil {
			if opts.Verbose {
				fmt.Fprintf(opts.Out, " ✗ (%v)\n", err)
			}
			opts.Logger.Debug("action failed", "index", i, "action", action.Type, "id", action.ID, "err", err)
			if errors.Is(err, pagemap.ErrNotFound) {
				result.Stale = true
				result.StaleIndex = i
				return result, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Failed = append(result.Failed, Failure{Index: i, Action: action, Err: err})
			continue
		}

		if opts.Verbose {
			if action.Checkpoint {
				fmt.Fprintln(opts.Out, " ✓ [checkpoint]")
			} else {
				fmt.Fprintln(opts.Out, " ✓")
			}
		}
		result.Completed = append(result.Completed, action)

		// Post-action wait
		delay := opts.BaseDelay
		if action.Duration > 0 && action.Type != "wait" {
			delay = time.Duration(action.Duration) * time.Millisecond
		}
		if err := sleep(ctx, delay); err != nil {
			return result, err
		}

		// If this was a checkpoint, stop and signal a re-observe is needed
		if action.Checkpoint {
			result.HitCheckpoint = true
			result.CheckpointIndex = i
			break
		}
	}

	return result, nil
}

// Execute runs a single action. Identifiers are resolved before the page is
// touched, so a stale identifier fails with pagemap.ErrNotFound and has no
// side effects.
func Execute(ctx context.Context, b Browser, r Resolver, action Action, opts Options) error {
	opts = withDefaults(opts)
	if err := action.Validate(); err != nil {
		return err
	}

	var xpath string
	if action.needsElement() {
		var err error
		if xpath, err = r.Resolve(action.ID); err != nil {
			return err
		}
	}

	switch action.Type {
	case "wait":
		return sleep(ctx, time.Duration(action.Duration)*time.Millisecond)
	case "navigate":
		return b.Navigate(ctx, action.URL)
	}

	page := b.Page().Context(ctx)

	switch action.Type {
	case "press":
		key, _ := keyByName(action.Key)
		return page.Keyboard.Type(key)
	case "scroll":
		if xpath == "" {
			return page.Mouse.Scroll(float64(action.X), float64(action.Y), 10)
		}
	}

	el, err := page.Timeout(opts.ElementTimeout).ElementX(xpath)
	if err != nil {
		return fmt.Errorf("element %s (%s) not found: %w", action.ID, xpath, err)
	}
	el = el.CancelTimeout()
	opts.Logger.Debug("resolved element", "id", action.ID, "xpath", xpath)

	switch action.Type {
	case "click":
		if err := el.ScrollIntoView(); err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	case "fill":
		if isSelect(el) {
			return el.Select([]string{action.Text}, true, rod.SelectorTypeText)
		}
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(action.Text)
	case "type":
		return el.Input(action.Text)
	case "upload":
		return el.SetFiles(action.Files)
	case "hover":
		return el.Hover()
	case "scroll":
		return el.ScrollIntoView()
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, action.Type)
}

func isSelect(el *rod.Element) bool {
	tag, err := el.Property("tagName")
	return err == nil && strings.EqualFold(tag.Str(), "select")
}

func withDefaults(opts Options) Options {
	if opts.ElementTimeout == 0 {
		opts.ElementTimeout = 5 * time.Second
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
