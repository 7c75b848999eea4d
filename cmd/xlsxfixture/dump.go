package main

import (
	"context"
	"io"
	"iter"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/store/sqlstore"
)

func newDumpCmd(g *globalFlags) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "dump [app.Model...]",
		Short: "Write database records to an xlsx workbook",
		Long: `dump writes the records of the given models (all models by default) to an
xlsx workbook, one sheet per model. Written to a terminal, the last sheet is
shown as CSV instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			ms := e.registry.Models()
			if len(args) > 0 {
				ms = make([]*models.Model, 0, len(args))
				for _, id := range args {
					m, err := e.registry.Model(id)
					if err != nil {
						return err
					}
					ms = append(ms, m)
				}
			}

			store, err := e.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var w io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return errors.Wrap(err, "failed to create output")
				}
				defer f.Close()
				w = f
			}

			log.Info("dumping", "models", len(ms), "output", outputPath)
			if err := xlsxfixture.NewSerializer(e.opts).Serialize(w, records(cmd.Context(), store, ms)); err != nil {
				return errors.Wrap(err, "dump failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

// records chains the records of ms, model by model.
func records(ctx context.Context, store *sqlstore.Store, ms []*models.Model) iter.Seq2[models.Object, error] {
	return func(yield func(models.Object, error) bool) {
		for _, m := range ms {
			for obj, err := range store.Iterate(ctx, m) {
				if !yield(obj, err) {
					return
				}
			}
		}
	}
}
