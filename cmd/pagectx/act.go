package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steve-z-wang/webtask-sub000/internal/ai"
	"github.com/steve-z-wang/webtask-sub000/internal/executor"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

func actCmd() *cobra.Command {
	var (
		mode     string
		provider string
		model    string
		delay    int
	)
	cmd := &cobra.Command{
		Use:   "act <url> <prompt>",
		Short: "Let an LLM carry out a task on the page using outline identifiers",
		Long: `act observes the page, asks the model for a batch of actions that refer to
outline identifiers, runs them, and observes the page again after every
checkpoint until the model reports the task done.

Example:
  pagectx act "https://myapp.com" "click login, fill email with test@example.com, submit form"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := modeFlag(mode)
			if err != nil {
				return err
			}
			if provider == "" {
				provider = cfg.AI.Provider
			}
			if model == "" {
				model = cfg.AI.Model
			}
			url, prompt := args[0], args[1]
			ctx := cmd.Context()

			logger.Debug("starting", "url", url, "prompt", prompt, "provider", provider, "mode", m)

			aiProvider, err := ai.NewProvider(provider, model)
			if err != nil {
				return fmt.Errorf("AI provider init failed: %w", err)
			}

			browser, err := openPage(ctx, url)
			if err != nil {
				return err
			}
			defer browser.Close()

			session := pagemap.NewSession(newBuilder(), browser, m)

			// Step 1: Observe the page
			fmt.Printf("→ Observing page... ")
			pm, err := session.Observe(ctx)
			if err != nil {
				fmt.Println("failed")
				return fmt.Errorf("observe failed: %w", err)
			}
			fmt.Printf("done (%d identifiers)\n", pm.Locators.Len())

			// Step 2: Generate initial actions via AI
			fmt.Printf("→ Generating actions via %s... ", provider)
			actions, err := aiProvider.GenerateActions(ctx, pm, prompt)
			if err != nil {
				fmt.Println("failed")
				return fmt.Errorf("action generation failed: %w", err)
			}
			fmt.Printf("done (%d actions)\n", len(actions))
			logActions(os.Stdout, actions)

			// Step 3: Execute until the task is done, observing again after each checkpoint
			fmt.Println("→ Executing...")
			execOpts := executor.Options{
				BaseDelay: time.Duration(delay) * time.Millisecond,
				Verbose:   true,
				Logger:    logger,
			}

			loop := &agentLoop{
				provider: aiProvider,
				execute: func(ctx context.Context, actions []executor.Action) (*executor.Result, error) {
					return executor.ExecuteBatch(ctx, browser, session, actions, execOpts)
				},
				observe: func(ctx context.Context) (*pagemap.PageMap, error) {
					if err := browser.Settle(ctx); err != nil {
						logger.Debug("settle after checkpoint", "err", err)
					}
					return session.Observe(ctx)
				},
				maxIterations: cfg.AI.MaxIterations,
				out:           os.Stdout,
			}
			run, err := loop.run(ctx, prompt, actions)
			if err != nil {
				return err
			}
			completed, failures := run.completed, run.failures

			if run.exhausted {
				fmt.Println("⚠ Max iterations reached, stopping")
			}
			if failures > 0 {
				fmt.Printf("⚠ %d of %d actions failed\n", failures, len(completed)+failures)
			}
			fmt.Printf("✓ Done (%d actions completed)\n", len(completed))
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Outline mode: accessibility, dom (default from config)")
	cmd.Flags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default from config or PAGECTX_DEFAULT_PROVIDER)")
	cmd.Flags().StringVar(&model, "model", "", "Specific model override")
	cmd.Flags().IntVar(&delay, "delay", 500, "Base delay between actions (ms)")
	return cmd
}

// logActions prints the action list
func logActions(w io.Writer, actions []executor.Action) {
	for i, action := range actions {
		checkpoint := ""
		if action.Checkpoint {
			checkpoint = " [checkpoint]"
		}
		fmt.Fprintf(w, "  [%d] %s%s\n", i+1, action, checkpoint)
	}
}

// agentLoop runs batches until the model returns no actions, a batch ends
// without a checkpoint or stale identifier, or maxIterations batches ran.
type agentLoop struct {
	provider      ai.Provider
	execute       func(ctx context.Context, actions []executor.Action) (*executor.Result, error)
	observe       func(ctx context.Context) (*pagemap.PageMap, error)
	maxIterations int
	out           io.Writer
}

type loopResult struct {
	completed  []executor.Action
	failures   int
	iterations int
	// exhausted is set when the iteration limit stopped a task that still had
	// actions to run.
	exhausted bool
}

func (l *agentLoop) run(ctx context.Context, prompt string, actions []executor.Action) (loopResult, error) {
	var res loopResult
	for len(actions) > 0 {
		if res.iterations >= l.maxIterations {
			res.exhausted = true
			break
		}
		res.iterations++

		result, err := l.execute(ctx, actions)
		if err != nil {
			return res, fmt.Errorf("execution failed: %w", err)
		}
		res.completed = append(res.completed, result.Completed...)
		res.failures += len(result.Failed)

		if result.Done() {
			break
		}

		if result.Stale {
			fmt.Fprintf(l.out, "→ %q is not in the current outline, observing again... ", actions[result.StaleIndex].ID)
		} else {
			fmt.Fprintf(l.out, "→ Checkpoint reached, observing again... ")
		}
		pm, err := l.observe(ctx)
		if err != nil {
			fmt.Fprintln(l.out, "failed")
			return res, fmt.Errorf("observe failed: %w", err)
		}
		fmt.Fprintf(l.out, "done (%d identifiers)\n", pm.Locators.Len())

		fmt.Fprintf(l.out, "→ Continuing action generation... ")
		actions, err = l.provider.ContinueActions(ctx, pm, prompt, res.completed)
		if err != nil {
			fmt.Fprintln(l.out, "failed")
			return res, fmt.Errorf("continue generation failed: %w", err)
		}
		fmt.Fprintf(l.out, "done (%d actions)\n", len(actions))
		logActions(l.out, actions)
	}
	return res, nil
}
