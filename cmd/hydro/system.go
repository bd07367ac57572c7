package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/service"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/types"
)

// cliPageSize is the page size used when walking a full listing.
const cliPageSize = 100

var (
	systemOwner      string
	systemJSONOutput bool
	systemSearch     string
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Inspect an owner's systems",
	Long:  "List and inspect the systems of one owner without running the server.",
}

var systemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the owner's systems",
	Args:  cobra.NoArgs,
	RunE:  runSystemList,
}

var systemShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a system with its latest measurements",
	Args:  cobra.ExactArgs(1),
	RunE:  runSystemShow,
}

func init() {
	systemCmd.PersistentFlags().StringVar(&systemOwner, "owner", "",
		"Identity whose systems are read (required)")
	systemCmd.PersistentFlags().BoolVar(&systemJSONOutput, "json", false,
		"Output in JSON format")
	systemListCmd.Flags().StringVar(&systemSearch, "search", "",
		"Only systems whose name or description contains this text")

	systemCmd.AddCommand(systemListCmd)
	systemCmd.AddCommand(systemShowCmd)
	rootCmd.AddCommand(systemCmd)
}

// openService opens the migrated store behind a service.
func openService() (*service.Service, func(), error) {
	if systemOwner == "" {
		return nil, nil, errors.New("--owner is required")
	}
	path, err := resolveDBPath()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	return service.New(st), func() { st.Close() }, nil
}

func runSystemList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	q, err := filter.ParseSystems(url.Values{"search": {systemSearch}})
	if err != nil {
		return err
	}

	var systems []types.SystemView
	page := filter.Page{Number: 1, Size: cliPageSize}
	for {
		list, err := svc.ListSystems(ctx, types.Identity(systemOwner), q, page)
		if err != nil {
			return fmt.Errorf("list systems: %w", err)
		}
		systems = append(systems, list.Items...)
		if !list.HasNext() {
			break
		}
		page.Number++
	}

	if systemJSONOutput {
		if systems == nil {
			systems = []types.SystemView{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"systems": systems,
			"total":   len(systems),
		})
	}

	if len(systems) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No systems found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tMEASUREMENTS\tCREATED\tDESCRIPTION")
	for _, s := range systems {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.Name,
			s.MeasurementCount,
			s.CreatedAt.Format("2006-01-02 15:04"),
			orDash(s.Description),
		)
	}
	return w.Flush()
}

func runSystemShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	v, err := svc.SystemDetails(ctx, types.Identity(systemOwner), args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("system %q not found for owner %q", args[0], systemOwner)
		}
		return fmt.Errorf("show system: %w", err)
	}

	if systemJSONOutput {
		return printJSON(cmd.OutOrStdout(), v)
	}

	out := cmd.OutOrStdout()
	w := newTabWriter(out)
	fmt.Fprintf(w, "ID:\t%s\n", v.ID)
	fmt.Fprintf(w, "Name:\t%s\n", v.Name)
	fmt.Fprintf(w, "Description:\t%s\n", orDash(v.Description))
	fmt.Fprintf(w, "Owner:\t%s\n", v.Owner)
	fmt.Fprintf(w, "Created:\t%s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated:\t%s\n", v.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Measurements:\t%d\n", v.MeasurementCount)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(v.LatestMeasurements) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w = newTabWriter(out)
	fmt.Fprintln(w, "MEASUREMENT\tPH\tTDS\tTEMP\tCREATED")
	for _, m := range v.LatestMeasurements {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%.1f\t%s\n",
			m.ID, m.PH, m.TDS, m.WaterTemperature,
			m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// printJSON marshals v to indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
