package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/labeleval/internal/domain/model"
)

// evalOptions are the scoring flags shared by eval and compare.
type evalOptions struct {
	scope       string
	normalize   bool
	emptyPolicy string
}

func (o *evalOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.scope, "scope", "", "keys to evaluate: union or predicted (default from config)")
	cmd.Flags().BoolVar(&o.normalize, "normalize", true, "ignore case and accents in keys and labels")
	cmd.Flags().StringVar(&o.emptyPolicy, "empty-policy", "", "score of items with no labels: zero or perfect (default from config)")
}

// overrides returns only the options the user set explicitly.
func (o *evalOptions) overrides(cmd *cobra.Command) (model.Overrides, error) {
	var out model.Overrides
	if o.scope != "" {
		s, err := model.ParseScope(o.scope)
		if err != nil {
			return out, err
		}
		out.Scope = &s
	}
	if o.emptyPolicy != "" {
		p, err := model.ParseEmptyPolicy(o.emptyPolicy)
		if err != nil {
			return out, err
		}
		out.EmptyPolicy = &p
	}
	if cmd.Flags().Changed("normalize") {
		n := o.normalize
		out.Normalize = &n
	}
	return out, nil
}

// readDocument loads a file as a named, not yet validated document.
func readDocument(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return model.Document{Name: filepath.Base(path), Data: data}, nil
}
