// Package cli implements the labeleval command line: local and remote
// evaluation, multi-run comparison and sample documents.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/labeleval/internal/app"
	"github.com/okian/labeleval/internal/config"
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/pkg/logger"
)

// state is shared by every subcommand once the root pre-run has loaded it.
type state struct {
	logLevel string
	cfg      *config.Config
	log      logger.Logger
}

// NewRootCommand builds the labeleval command tree.
func NewRootCommand(version string) *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "labeleval",
		Short:         "Precision and recall for multi-label classification results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newEvalCommand(st),
		newCompareCommand(st),
		newSampleCommand(),
		newVersionCommand(version),
	)
	return root
}

func (st *state) init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		return err
	}
	if err := logger.SetLevelString(st.logLevel); err != nil {
		return err
	}
	st.cfg = cfg
	st.log = logger.Named("cli")
	return nil
}

// newService starts a local service configured from the loaded config.
func (st *state) newService(ctx context.Context) (*service.Service, error) {
	scope, err := model.ParseScope(st.cfg.Scope)
	if err != nil {
		return nil, err
	}
	policy, err := model.ParseEmptyPolicy(st.cfg.EmptyPolicy)
	if err != nil {
		return nil, err
	}
	svc := service.New(
		service.WithLogger(st.log),
		service.WithScope(scope),
		service.WithNormalization(st.cfg.Normalize),
		service.WithEmptyPolicy(policy),
		service.WithWorkerCount(st.cfg.WorkerCount),
		service.WithReportHistory(st.cfg.ReportHistory),
		service.WithCSVFormat(st.cfg.Delimiter(), st.cfg.LabelSeparator),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start evaluator: %w", err)
	}
	return svc, nil
}
