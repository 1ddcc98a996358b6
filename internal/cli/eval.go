package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/labeleval/internal/adapters/export"
	"github.com/okian/labeleval/internal/domain/model"
)

const defaultClientTimeout = 30 * time.Second

type evalFlags struct {
	evalOptions
	actual    string
	predicted string
	csvPath   string
	server    string
	timeout   time.Duration
}

func newEvalCommand(st *state) *cobra.Command {
	f := &evalFlags{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate predicted labels against ground truth",
		Example: `  labeleval eval --actual truth.json --predicted run.json
  labeleval eval --actual truth.json --predicted run.json --scope predicted --csv metrics.csv
  labeleval eval --actual truth.json --predicted run.json --server http://localhost:9080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return f.run(cmd, st)
		},
	}
	cmd.Flags().StringVar(&f.actual, "actual", "", "ground truth JSON file")
	cmd.Flags().StringVar(&f.predicted, "predicted", "", "predicted labels JSON file")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "also write per-item rows to this CSV file")
	cmd.Flags().StringVar(&f.server, "server", "", "submit to a running labeleval server instead of evaluating locally")
	cmd.Flags().DurationVar(&f.timeout, "timeout", defaultClientTimeout, "request timeout in --server mode")
	_ = cmd.MarkFlagRequired("actual")
	_ = cmd.MarkFlagRequired("predicted")
	f.bind(cmd)
	return cmd
}

func (f *evalFlags) run(cmd *cobra.Command, st *state) error {
	ctx := cmd.Context()
	overrides, err := f.overrides(cmd)
	if err != nil {
		return err
	}
	actual, err := readDocument(f.actual)
	if err != nil {
		return err
	}
	predicted, err := readDocument(f.predicted)
	if err != nil {
		return err
	}
	req := model.Request{Actual: actual, Predicted: predicted, Options: overrides}

	if f.server != "" {
		return f.runRemote(ctx, cmd.OutOrStdout(), req)
	}

	svc, err := st.newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	report, err := svc.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	if err := printReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if f.csvPath == "" {
		return nil
	}
	return writeFile(f.csvPath, func(w io.Writer) error {
		return export.WriteCSV(w, report.Summary, svc.CSVOptions()...)
	})
}

func (f *evalFlags) runRemote(ctx context.Context, out io.Writer, req model.Request) error {
	client := NewClient(f.server, f.timeout)
	report, err := client.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	if err := printReport(out, report.ToModel()); err != nil {
		return err
	}
	if f.csvPath == "" {
		return nil
	}
	return writeFile(f.csvPath, func(w io.Writer) error {
		return client.DownloadCSV(ctx, report.CSVURL, w)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}
