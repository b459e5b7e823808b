package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/use-agent/harvester/config"
	"github.com/use-agent/harvester/store"
)

// NewRecordsCmd creates the records command with its list and get subcommands.
func NewRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect harvest records saved with --db",
	}
	cmd.PersistentFlags().String("db", config.Load().Store.Path, "SQLite file holding the records")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved records, newest first",
		Args:  cobra.NoArgs,
		RunE:  runRecordsList,
	}
	list.Flags().Int("limit", 20, "Maximum number of records to show")
	list.Flags().Int("offset", 0, "Number of records to skip")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one saved record",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecordsGet,
	}
	get.Flags().BoolP("json", "j", false, "Print the record as JSON")

	cmd.AddCommand(list, get)
	return cmd
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("no database: pass --db or set HARVEST_DB_PATH")
	}
	return store.Open(path)
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	offset, err := cmd.Flags().GetInt("offset")
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.List(cmd.Context(), limit, offset)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPAGES\tSIZE\tSEED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.PageCount, r.Size, r.SeedURL)
	}
	return tw.Flush()
}

func runRecordsGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid record id %q", args[0])
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("record %d: %w", id, err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rec.Content)
	return err
}
