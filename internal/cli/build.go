package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/logging"
)

type buildOpts struct {
	items   []string
	total   float64
	intro   string
	outro   string
	name    string
	ctaLink string
	output  string
	outDir  string
}

func newBuildCmd() *cobra.Command {
	opts := buildOpts{total: director.DefaultTotalDuration, outDir: "templates"}

	cmd := &cobra.Command{
		Use:   "build [items.yaml]",
		Short: "Build a timed template from a list of items",
		Long: `Build lays out an intro, one scene per item and an outro over the total
duration. Items come from a YAML/JSON list of {text, duration} or from --item.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.FromContext(cmd.Context())

			items, err := collectItems(args, opts.items)
			if err != nil {
				return err
			}
			tmpl := director.BuildScenes(items, opts.total, optional(opts.intro), optional(opts.outro))
			tmpl.ID = uuid.NewString()
			tmpl.Name = opts.name
			tmpl.CTALink = opts.ctaLink

			out := opts.output
			if out == "" {
				out = director.GenerateOutputPath(opts.outDir, opts.name, ".yaml")
			}
			if err := director.WriteTemplate(tmpl, out); err != nil {
				return err
			}
			logger.Info("template written", "path", out, "scenes", len(tmpl.Scenes()), "total", tmpl.TotalDuration)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.items, "item", nil, "item text, repeatable (e.g. \"1. Eiffel Tower\")")
	f.Float64Var(&opts.total, "total", opts.total, "total duration in seconds")
	f.StringVar(&opts.intro, "intro", "", "hook text for the intro scene")
	f.StringVar(&opts.outro, "outro", "", "call-to-action text for the outro scene")
	f.StringVar(&opts.name, "name", "", "template name")
	f.StringVar(&opts.ctaLink, "cta-link", "", "link encoded as a QR badge on the call-to-action scene")
	f.StringVarP(&opts.output, "output", "o", "", "template path (.yaml or .json)")
	f.StringVar(&opts.outDir, "dir", opts.outDir, "directory for generated template names")
	return cmd
}

func collectItems(args, flagItems []string) ([]director.RawItem, error) {
	var items []director.RawItem
	if len(args) == 1 {
		read, err := director.ReadItems(args[0])
		if err != nil {
			return nil, err
		}
		items = append(items, read...)
	}
	for _, text := range flagItems {
		items = append(items, director.RawItem{Text: text})
	}
	if len(items) == 0 {
		return nil, errors.New("no items: pass an items file or --item")
	}
	return items, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
