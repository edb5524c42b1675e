package main

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steve-z-wang/webtask-sub000/internal/filter"
	"github.com/steve-z-wang/webtask-sub000/internal/overlay"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

func annotateCmd() *cobra.Command {
	var (
		mode     string
		output   string
		all      bool
		fullPage bool
		maxWidth uint
	)
	cmd := &cobra.Command{
		Use:   "annotate <url>",
		Short: "Save a screenshot with each identifier outlined",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := modeFlag(mode)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			browser, err := openPage(ctx, args[0])
			if err != nil {
				return err
			}
			defer browser.Close()

			builder := newBuilder()
			pm, err := builder.Build(ctx, browser, m)
			if err != nil {
				return err
			}
			shot, err := browser.Screenshot(ctx, fullPage)
			if err != nil {
				return fmt.Errorf("screenshot: %w", err)
			}

			boxes := targetBoxes(pm, builder.Rules(), all)

			opts := overlay.DefaultOptions()
			opts.MaxWidth = maxWidth
			img, err := overlay.Annotate(shot, boxes, opts)
			if err != nil {
				return err
			}
			if err := writePNG(output, img); err != nil {
				return err
			}
			fmt.Printf("✓ Saved to %s (%d boxes)\n", output, len(boxes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Outline mode: accessibility, dom (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "annotated.png", "Output filename")
	cmd.Flags().BoolVar(&all, "all", false, "Outline every identifier, not only interactive elements")
	cmd.Flags().BoolVar(&fullPage, "full-page", false, "Capture the whole page instead of the viewport")
	cmd.Flags().UintVar(&maxWidth, "max-width", 0, "Downscale the image to this width")
	return cmd
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := overlay.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// targetBoxes returns a box for every resolvable identifier with a layout box.
// Unless all is set only interactive targets are kept: by role in
// accessibility mode, by element in DOM mode.
func targetBoxes(pm *pagemap.PageMap, rules *filter.Rules, all bool) []overlay.Box {
	var boxes []overlay.Box
	for _, t := range pm.Locators.Targets() {
		if t.Node.Bounds == nil {
			continue
		}
		if !all && !interactiveTarget(pm.Mode, rules, t) {
			continue
		}
		boxes = append(boxes, overlay.Box{ID: t.ID, Bounds: *t.Node.Bounds})
	}
	return boxes
}

func interactiveTarget(mode pagemap.Mode, rules *filter.Rules, t pagemap.Target) bool {
	if mode == pagemap.ModeAccessibility {
		if i := strings.LastIndexByte(t.ID, '-'); i > 0 && rules.IsInteractiveRole(t.ID[:i]) {
			return true
		}
	}
	return rules.IsInteractive(t.Node)
}
