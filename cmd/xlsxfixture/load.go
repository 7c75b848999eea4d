package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/store/memory"
)

func newLoadCmd(g *globalFlags) *cobra.Command {
	var (
		formatName string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "load <fixture.xlsx>...",
		Short: "Load fixture workbooks into the database",
		Long: `load decodes every sheet of the given workbooks and saves one record per row.
All files are loaded in a single transaction: any error leaves the database
unchanged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			format, ok := xlsxfixture.Lookup(formatName)
			if !ok {
				return fmt.Errorf("unknown format: %s (available: %v)", formatName, xlsxfixture.Formats())
			}

			var total int
			loadAll := func(ctx context.Context, store xlsxfixture.Store) error {
				for _, path := range args {
					n, err := loadFile(ctx, format, path, e, store)
					if err != nil {
						return errors.Wrapf(err, "load %s", path)
					}
					total += n
				}
				return nil
			}

			if dryRun {
				if err := loadAll(cmd.Context(), memory.New()); err != nil {
					return err
				}
			} else {
				store, err := e.openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()
				err = store.WithTx(cmd.Context(), func(ctx context.Context) error {
					return loadAll(ctx, store)
				})
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Installed %d object(s) from %d fixture(s)\n", total, len(args))
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", xlsxfixture.FormatName, "fixture format")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decode into memory without touching the database")
	return cmd
}

func loadFile(ctx context.Context, format xlsxfixture.Format, path string, e *env, store xlsxfixture.Store) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := format.NewDecoder(ctx, f, e.registry, store, e.opts)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	n := 0
	for dec.HasNext() {
		if _, err := dec.Next(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return n, err
		}
		n++
	}
	log.Info("fixture loaded", "path", path, "records", n)
	return n, nil
}
