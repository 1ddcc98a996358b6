package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/labeleval/internal/domain/model"
)

type compareFlags struct {
	evalOptions
	actual string
}

func newCompareCommand(st *state) *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:     "compare --actual truth.json run1.json [run2.json ...]",
		Short:   "Score several prediction runs against one ground truth",
		Example: "  labeleval compare --actual truth.json model-a.json model-b.json",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, st, args)
		},
	}
	cmd.Flags().StringVar(&f.actual, "actual", "", "ground truth JSON file")
	_ = cmd.MarkFlagRequired("actual")
	f.bind(cmd)
	return cmd
}

func (f *compareFlags) run(cmd *cobra.Command, st *state, paths []string) error {
	ctx := cmd.Context()
	overrides, err := f.overrides(cmd)
	if err != nil {
		return err
	}
	actual, err := readDocument(f.actual)
	if err != nil {
		return err
	}
	runs := make([]model.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := readDocument(p)
		if err != nil {
			return err
		}
		runs = append(runs, doc)
	}

	svc, err := st.newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	reports, err := svc.Compare(ctx, model.CompareRequest{Actual: actual, Runs: runs, Options: overrides})
	if err != nil {
		return err
	}
	return printComparison(cmd.OutOrStdout(), reports)
}
