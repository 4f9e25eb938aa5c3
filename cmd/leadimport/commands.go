package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/lead-intake/internal/config"
	"github.com/ignite/lead-intake/internal/intake"
	"github.com/ignite/lead-intake/internal/leadimport"
	"github.com/ignite/lead-intake/internal/spreadsheet"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "leadimport",
		Short:         "Import contact spreadsheets and preview first-contact messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML config file")

	loadConfig := func() (*config.Config, error) {
		return config.LoadFromEnv(configPath)
	}

	rootCmd.AddCommand(
		newProcessCmd(loadConfig),
		newTemplateCmd(),
		newProfilesCmd(loadConfig),
		newColumnsCmd(loadConfig),
	)
	return rootCmd
}

type configLoader func() (*config.Config, error)

func newProcessCmd(load configLoader) *cobra.Command {
	var mapping []string
	var messages []string
	var render bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process [path|s3://bucket/key|https://url]",
		Short: "Process a contact spreadsheet",
		Long: `Decode a spreadsheet, map its columns, validate every row and group the
valid contacts by lead source.

Example:
  leadimport process leads.xlsx --map "Canal=lead_source" --message "Facebook=Hola {nombre}" --render`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manual, err := parsePairs("map", mapping)
			if err != nil {
				return err
			}
			custom, err := parsePairs("message", messages)
			if err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			svc, _, err := intake.Build(ctx, cfg, intake.WithUnrestrictedLocal())
			if err != nil {
				return err
			}

			out, err := svc.Import(ctx, intake.Request{
				Source:   args[0],
				Mapping:  manual,
				Messages: custom,
				Render:   render,
			})
			if err != nil {
				return userError(err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&mapping, "map", nil, "Manual column mapping, header=type (repeatable)")
	cmd.Flags().StringArrayVar(&messages, "message", nil, "Custom message per lead source, source=text (repeatable)")
	cmd.Flags().BoolVar(&render, "render", false, "Render the message for every valid contact")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [out.xlsx]",
		Short: "Write the contact template workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := spreadsheet.TemplateFileName(time.Now())
			if len(args) == 1 {
				path = args[0]
			}
			data, err := spreadsheet.ContactTemplate()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("writing template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", path)
			return nil
		},
	}
}

func newProfilesCmd(load configLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the import profiles and their message templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromConfig(load)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), catalog.Profiles())
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tREQUIRED\tTEMPLATES")
			for _, p := range catalog.Profiles() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", p.Type, joinTypes(p.Required), len(p.Templates))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newColumnsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List column types and the headers recognized for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromConfig(load)
			if err != nil {
				return err
			}
			synonyms := catalog.Dictionary().Synonyms()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tREQUIRED\tHEADERS")
			for _, t := range leadimport.ColumnTypes() {
				fmt.Fprintf(tw, "%s\t%v\t%s\n", t, t.RequiredByDefault(), strings.Join(synonyms[t], ", "))
			}
			return tw.Flush()
		},
	}
}

// parsePairs splits key=value flag values on the first '='.
func parsePairs(flag string, values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--%s %q: want key=value", flag, v)
		}
		out[strings.TrimSpace(k)] = val
	}
	return out, nil
}

// userError prefixes file errors with the text shown to end users.
func userError(err error) error {
	if errors.Is(err, spreadsheet.ErrEmptyFile) || errors.Is(err, spreadsheet.ErrNoSheet) ||
		errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
		return fmt.Errorf("%s: %w", spreadsheet.UserMessage(err), err)
	}
	return err
}

func catalogFromConfig(load configLoader) (*leadimport.Catalog, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return intake.LoadCatalog(cfg.Import)
}

func joinTypes(types []leadimport.ColumnType) string {
	s := make([]string, len(types))
	for i, t := range types {
		s[i] = string(t)
	}
	return strings.Join(s, ",")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOutcome(w io.Writer, out *intake.Outcome) {
	st := out.Stats
	fmt.Fprintf(w, "Type: %s\n", out.ExcelType)
	fmt.Fprintf(w, "Rows: %d  Valid: %d  Invalid: %d  Duplicates: %d  Time: %dms\n",
		st.TotalProcessed, st.ValidContacts, st.InvalidContacts, st.Duplicates, st.ProcessingTimeMs)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nHEADER\tTYPE\tREQUIRED")
	for _, c := range out.ColumnMapping.Detected {
		typ := string(c.Type)
		if c.Overridden {
			typ += " (manual)"
		}
		if c.Duplicate {
			typ += " (duplicate)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\n", c.Name, typ, c.Required)
	}
	tw.Flush()

	if len(out.LeadSources) > 0 {
		fmt.Fprintln(w, "\nLead sources:")
		for _, g := range out.LeadSources {
			fmt.Fprintf(w, "  %s (%d): %s\n", g.Source, g.Count, g.Message())
		}
	}
	if len(out.UnknownSources) > 0 {
		fmt.Fprintf(w, "\nIgnored messages for unknown sources: %s\n", strings.Join(out.UnknownSources, ", "))
	}

	if len(out.Errors) > 0 {
		errs := append([]leadimport.ExcelError(nil), out.Errors...)
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })
		fmt.Fprintln(w, "\nIssues:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, e := range errs {
			fmt.Fprintf(tw, "  row %d\t%s\t%s\t%s\n", e.Row, e.Severity, e.Column, e.Error)
		}
		tw.Flush()
	}

	if len(out.Messages) > 0 {
		fmt.Fprintln(w, "\nMessages:")
		for _, m := range out.Messages {
			fmt.Fprintf(w, "  [row %d] %s <%s>: %s\n", m.Row, m.Name, m.Phone, m.Text)
		}
	}
}
