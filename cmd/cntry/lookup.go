package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/country"
	"github.com/pders01/cntry/internal/lookup"
	"github.com/pders01/cntry/internal/render"
	"github.com/pders01/cntry/internal/restcountries"
)

var (
	lookupFormat    string
	lookupNoHistory bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <term>",
	Short: "Look up countries by name once",
	Long: `Runs a single lookup and prints the result.

A single match prints the country card, several matches print the list of
names. Notices (too many matches, failures) go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupFormat, "format", "f", "text", "output format: text, markdown, html or json")
	lookupCmd.Flags().BoolVar(&lookupNoHistory, "no-history", false, "do not record the lookup")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	renderer, err := rendererFor(lookupFormat, cfg.UI)
	if err != nil {
		return err
	}

	client, err := restcountries.NewClient(cfg)
	if err != nil {
		return err
	}

	var recorder lookup.Recorder
	if !lookupNoHistory {
		store, index, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		defer index.Close()
		recorder = lookup.NewHistoryRecorder(store, index)
	}

	out := &streamSurface{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	controller := lookup.NewController(cfg.Lookup, lookup.Collaborators{
		Fetcher:   client,
		Renderer:  renderer,
		Container: out,
		Notifier:  out,
		Field:     out,
		Recorder:  recorder,
	})

	res := controller.Run(cmd.Context(), strings.Join(args, " "))
	if res.Kind == country.KindFailed {
		return fmt.Errorf("lookup %q: %w", res.Term, res.Err)
	}
	return nil
}

func rendererFor(format string, ui config.UIConfig) (lookup.Renderer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return render.NewTerminalRenderer(ui), nil
	case "markdown", "md":
		return render.MarkdownRenderer{}, nil
	case "html":
		return render.HTMLRenderer{}, nil
	case "json":
		return jsonRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, markdown, html or json)", format)
	}
}

// streamSurface is the command-line container, notifier and field. Output
// is append-only, so Clear and Reset have nothing to undo.
type streamSurface struct {
	out    io.Writer
	errOut io.Writer
}

func (s *streamSurface) Clear() {}

func (s *streamSurface) Insert(markup string) {
	fmt.Fprintln(s.out, strings.TrimRight(markup, "\n"))
}

func (s *streamSurface) Notify(n lookup.Notice) {
	fmt.Fprintf(s.errOut, "%s: %s\n", n.Level, n.Text)
}

func (s *streamSurface) Reset() {}

type jsonRenderer struct{}

func (jsonRenderer) Card(card country.CardView) (string, error) {
	return marshalView(card)
}

func (jsonRenderer) List(list country.ListView) (string, error) {
	return marshalView(list)
}

func marshalView(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}
