package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"carviz/internal/exporter"
	customMiddleware "carviz/internal/middleware"
	"carviz/internal/pipeline"
	"carviz/internal/validation"
	"carviz/pkg/contracts/domain"
)

const formatJSON = "json"

var outputFormats = []string{"csv", "xlsx", formatJSON}

// filterFlags mirrors the dashboard sidebar.
type filterFlags struct {
	carType    string
	make       string
	models     []string
	msrpMin    int64
	msrpMax    int64
	invoiceMin int64
	invoiceMax int64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.carType, "type", "", "vehicle type")
	flags.StringVar(&f.make, "make", "", "make, scoped to --type")
	flags.StringArrayVar(&f.models, "model", nil, "model, scoped to --type and --make (repeatable)")
	flags.Int64Var(&f.msrpMin, "msrp-min", 0, "lowest MSRP in dollars")
	flags.Int64Var(&f.msrpMax, "msrp-max", 0, "highest MSRP in dollars")
	flags.Int64Var(&f.invoiceMin, "invoice-min", 0, "lowest invoice price in dollars")
	flags.Int64Var(&f.invoiceMax, "invoice-max", 0, "highest invoice price in dollars")
}

// spec builds the filter selection. A range flag given alone leaves the other
// end open; leaving out every model flag selects all models.
func (f *filterFlags) spec(cmd *cobra.Command) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Type: strings.TrimSpace(f.carType),
		Make: strings.TrimSpace(f.make),
	}
	if cmd.Flags().Changed("model") {
		spec.Models = append([]string{}, f.models...)
	}
	spec.MSRP = rangeFlag(cmd, "msrp", f.msrpMin, f.msrpMax)
	spec.Invoice = rangeFlag(cmd, "invoice", f.invoiceMin, f.invoiceMax)

	validator := customMiddleware.NewValidationMiddleware(nil, nil, 0)
	if err := validator.ValidateStruct(spec); err != nil {
		return domain.FilterSpec{}, fmt.Errorf("invalid filter: %w", err)
	}
	return spec, nil
}

func rangeFlag(cmd *cobra.Command, name string, lo, hi int64) *domain.Range {
	minSet := cmd.Flags().Changed(name + "-min")
	maxSet := cmd.Flags().Changed(name + "-max")
	if !minSet && !maxSet {
		return nil
	}
	if !maxSet {
		hi = math.MaxInt64
	}
	return &domain.Range{Min: lo, Max: hi}
}

func newFilterCmd(root *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		format  string
		out     string
		bom     bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Apply the dashboard filters and write the matching listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !isOutputFormat(format) {
				return fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(outputFormats, ", "))
			}

			spec, err := filters.spec(cmd)
			if err != nil {
				return err
			}

			s, err := root.open(cmd)
			if err != nil {
				return err
			}
			if _, err := s.load(cmd.Context()); err != nil {
				return err
			}

			view, err := s.service.Filter(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if warning := pipeline.CheckSelection(view, spec); warning != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), warning.Message)
			}

			if out == "" {
				return render(cmd.OutOrStdout(), view, format)
			}

			path := out
			if !filepath.IsAbs(path) {
				path = s.paths.GetExportPath(path)
			}
			if err := validation.NewFileValidator(s.logger).ValidateOutputFile(path, format); err != nil {
				return err
			}

			if format == "csv" {
				path, err = exporter.NewCSVWriter(s.paths, s.logger).WriteFile(path, view, exporter.WriteOptions{BOMPrefix: bom})
				if err != nil {
					return err
				}
			} else {
				var buf bytes.Buffer
				if err := render(&buf, view, format); err != nil {
					return err
				}
				if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d listings to %s\n", view.Len(), path)
			return nil
		},
	}

	cmd.Example = `  carviz filter --dataset CARS.csv --type Sedan --make Acme --model X --model Y
  carviz filter --type SUV --msrp-max 40000 --format xlsx --out suvs.xlsx`

	filters.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv, xlsx or json")
	cmd.Flags().StringVar(&out, "out", "", "output file; relative paths land in the exports directory (default: stdout)")
	cmd.Flags().BoolVar(&bom, "bom", false, "prefix CSV files with a UTF-8 byte order mark for Excel")
	return cmd
}

func isOutputFormat(format string) bool {
	for _, f := range outputFormats {
		if f == format {
			return true
		}
	}
	return false
}

func render(w io.Writer, view domain.FilteredView, format string) error {
	switch format {
	case "csv":
		return exporter.WriteCSV(w, view)
	case "xlsx":
		return exporter.WriteXLSX(w, view)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func newOptionsCmd(root *rootOptions) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Print the choices each dashboard control offers for a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec(cmd)
			if err != nil {
				return err
			}

			s, err := root.open(cmd)
			if err != nil {
				return err
			}
			if _, err := s.load(cmd.Context()); err != nil {
				return err
			}

			opts, err := s.service.Options(cmd.Context(), spec)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(opts)
		},
	}

	filters.register(cmd)
	return cmd
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the dataset and report what it contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.open(cmd)
			if err != nil {
				return err
			}

			columns, err := validation.NewFileValidator(s.logger).ValidateDataset(s.paths.DatasetFile)
			if err != nil {
				return err
			}
			cat, err := s.load(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "dataset:  %s\n", s.paths.DatasetFile)
			fmt.Fprintf(w, "columns:  %s\n", strings.Join(columns, ", "))
			fmt.Fprintf(w, "listings: %d\n", cat.Len())
			return nil
		},
	}
}
