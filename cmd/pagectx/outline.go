package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

func outlineCmd() *cobra.Command {
	var (
		mode   string
		raw    bool
		paths  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "outline <url>",
		Short: "Print the page outline an LLM would see",
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

			if raw {
				snap, err := browser.DOMSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("capture dom snapshot: %w", err)
				}
				fmt.Println(pagemap.RawOutline(dom.Decode(snap), cfg.Outline.MaxValueLength))
				return nil
			}

			pm, err := newBuilder().Build(ctx, browser, m)
			if err != nil {
				return err
			}
			logger.Debug("outline built", "build", pm.BuildID, "decoded", pm.Stats.Decoded,
				"kept", pm.Stats.Kept, "ids", pm.Stats.Identifiers, "resolvable", pm.Stats.Resolvable,
				"took", pm.Stats.Duration)

			if asJSON {
				return printJSON(pm)
			}
			fmt.Println(pm.Render())
			if paths {
				fmt.Println()
				printPaths(pm)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Outline mode: accessibility, dom (default from config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the decoded DOM before filtering")
	cmd.Flags().BoolVar(&paths, "paths", false, "Also print the XPath behind each identifier")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page map as JSON")
	return cmd
}

func printPaths(pm *pagemap.PageMap) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, t := range pm.Locators.Targets() {
		fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Node.XPath())
	}
	tw.Flush()
}

type outlineJSON struct {
	*pagemap.PageMap
	Paths map[string]string `json:"paths"`
}

func printJSON(pm *pagemap.PageMap) error {
	out := outlineJSON{PageMap: pm, Paths: map[string]string{}}
	for _, t := range pm.Locators.Targets() {
		out.Paths[t.ID] = t.Node.XPath()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
