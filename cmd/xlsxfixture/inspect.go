package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/codec"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/store/memory"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fixture is the JSON form of one record.
type fixture struct {
	Model  string         `json:"model"`
	PK     any            `json:"pk"`
	Fields map[string]any `json:"fields"`
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	var (
		outputPath string
		pretty     bool
		sheetsDir  string
	)
	cmd := &cobra.Command{
		Use:   "inspect <fixture.xlsx>",
		Short: "Decode a workbook and print its records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			if _, err := os.Stat(inputPath); os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", inputPath)
			}
			e, err := g.setup()
			if err != nil {
				return err
			}

			f, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			d, err := xlsxfixture.NewDeserializer(ctx, f, e.registry, memory.New(), e.opts)
			if err != nil {
				return errors.Wrap(err, "inspection failed")
			}
			defer d.Close()

			var all []fixture
			bySheet := make(map[string][]fixture)
			var order []string
			for obj, err := range d.All(ctx) {
				if err != nil {
					return errors.Wrap(err, "inspection failed")
				}
				fx := toFixture(obj.Object)
				all = append(all, fx)
				if _, ok := bySheet[fx.Model]; !ok {
					order = append(order, fx.Model)
				}
				bySheet[fx.Model] = append(bySheet[fx.Model], fx)
			}

			jsonData, err := marshal(all, pretty)
			if err != nil {
				return errors.Wrap(err, "serialization failed")
			}
			if outputPath != "" {
				if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
					return errors.Wrap(err, "failed to write output")
				}
			} else if sheetsDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			}

			if sheetsDir != "" {
				if err := writeSheetFiles(bySheet, order, sheetsDir, pretty); err != nil {
					return errors.Wrap(err, "failed to write sheet files")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVar(&sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	return cmd
}

func marshal(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func writeSheetFiles(bySheet map[string][]fixture, order []string, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, sheet := range order {
		jsonData, err := marshal(bySheet[sheet], pretty)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, sheet+".json")
		if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func toFixture(rec *models.Record) fixture {
	fx := fixture{
		Model:  strings.ToLower(rec.Meta.Label()),
		PK:     rec.PK(),
		Fields: make(map[string]any, len(rec.Meta.Fields)),
	}
	pk := rec.Meta.PK()
	for _, f := range rec.Meta.Fields {
		if f == pk {
			continue
		}
		v, _ := rec.Value(f)
		fx.Fields[f.Name] = jsonValue(f, v)
	}
	return fx
}

// jsonValue renders v the way JSON fixtures store it.
func jsonValue(f *models.Field, v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case time.Duration:
		return x.String()
	case time.Time:
		if f.Kind == models.KindDate {
			return x.Format(codec.DateLayout)
		}
		return x.Format(time.RFC3339Nano)
	}
	return v
}
