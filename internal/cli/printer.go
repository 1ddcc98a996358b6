package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/okian/labeleval/internal/domain/evaluation"
	"github.com/okian/labeleval/internal/domain/model"
)

const notAvailable = "n/a"

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// printReport writes the global figures followed by the per-item table.
func printReport(w io.Writer, r model.Report) error {
	s := r.Summary
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Actual:\t%s\n", r.ActualSource)
	fmt.Fprintf(tw, "Predicted:\t%s\n", r.PredictedSource)
	fmt.Fprintf(tw, "Scope:\t%s (normalize=%t, empty=%s)\n", s.Scope, s.Normalized, s.EmptyPolicy)
	if p, rc, ok := s.Global(); ok {
		fmt.Fprintf(tw, "Global precision:\t%s\n", ratio(p))
		fmt.Fprintf(tw, "Global recall:\t%s\n", ratio(rc))
		fmt.Fprintf(tw, "Pooled precision:\t%s\n", ratio(s.PooledPrecision))
		fmt.Fprintf(tw, "Pooled recall:\t%s\n", ratio(s.PooledRecall))
	} else {
		fmt.Fprintf(tw, "Global precision:\t%s\n", notAvailable)
		fmt.Fprintf(tw, "Global recall:\t%s\n", notAvailable)
	}
	if r.Warning != "" {
		fmt.Fprintf(tw, "Warning:\t%s\n", r.Warning)
	}
	if len(s.Excluded) > 0 {
		fmt.Fprintf(tw, "Excluded (no prediction):\t%s\n", strings.Join(s.Excluded, ", "))
	}
	if len(s.MergedKeys) > 0 {
		fmt.Fprintf(tw, "Merged keys:\t%s\n", strings.Join(s.MergedKeys, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(s.Items) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tACTUAL\tPREDICTED\tTOTAL\tCORRECT\tINCORRECT\tNOT FOUND\tPRECISION\tRECALL")
	for _, it := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			it.Key,
			strings.Join(it.Actual, "; "),
			strings.Join(it.Predicted, "; "),
			it.TotalLabels, it.Matched, it.Spurious, it.Missing,
			ratio(it.Precision), ratio(it.Recall),
		)
	}
	return tw.Flush()
}

// printComparison writes one line per run, best macro F1 first.
func printComparison(w io.Writer, reports []model.Report) error {
	ranked := make([]model.Report, len(reports))
	copy(ranked, reports)
	sort.SliceStable(ranked, func(i, j int) bool {
		return f1(ranked[i]) > f1(ranked[j])
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tRUN\tPRECISION\tRECALL\tF1\tITEMS\tEXCLUDED")
	for i, r := range ranked {
		s := r.Summary
		p, rc, f := notAvailable, notAvailable, notAvailable
		if gp, gr, ok := s.Global(); ok {
			p, rc, f = ratio(gp), ratio(gr), ratio(evaluation.F1(gp, gr))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n", i+1, r.PredictedSource, p, rc, f, len(s.Items), len(s.Excluded))
	}
	return tw.Flush()
}

// f1 ranks runs without aggregates below any scored run.
func f1(r model.Report) float64 {
	p, rc, ok := r.Summary.Global()
	if !ok {
		return -1
	}
	return evaluation.F1(p, rc)
}
