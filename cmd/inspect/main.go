package main

import (
	"chat-hub/infrastructure/storage"
	"chat-hub/internal"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// inspect prints the content of a stopped (or live, read-only) store.
// Without -prefix it prints one line per key family with its size.
func main() {
	dbPath := flag.String("db", "/tmp/chat-hub/badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Key family to scan, e.g. msg: or conv:")
	limit := flag.Int("limit", 200, "Maximum number of rows, 0 for all")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	store := storage.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	if *prefix == "" {
		err = printFamilies(ctx, store, os.Stdout)
	} else {
		err = printEntries(ctx, store, *prefix, *limit, os.Stdout)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func printFamilies(ctx context.Context, store *storage.Store, out io.Writer) error {
	table := newTable(out, []string{"Prefix", "Keys"})
	for _, p := range storage.Prefixes {
		n, err := store.Count(ctx, p)
		if err != nil {
			return fmt.Errorf("count %s: %w", p, err)
		}
		table.Append([]string{p, strconv.Itoa(n)})
	}
	table.Render()
	return nil
}

func printEntries(ctx context.Context, store *storage.Store, prefix string, limit int, out io.Writer) error {
	entries, err := store.Dump(ctx, prefix, limit)
	if err != nil {
		return err
	}
	table := newTable(out, []string{"Key", "Family", "Timestamp", "Entity ID", "Scope", "Detail"})
	for _, e := range entries {
		row := internal.DefaultMapper(e.Key, e.Value)
		table.Append([]string{row.Key, row.Family, row.Timestamp, row.EntityID, row.Scope, row.Detail})
	}
	table.Render()
	return nil
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
