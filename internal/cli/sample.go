package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const sampleActual = `{
  "song1.mp3": ["Rock", "Pop"],
  "song2.mp3": ["Jazz", "Blues"],
  "song3.mp3": ["Classical"]
}
`

const samplePredicted = `{
  "song1.mp3": ["rock", "Electronic"],
  "song2.mp3": ["Jazz", "Blues"],
  "song4.mp3": ["Ambient"]
}
`

func newSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "sample [actual|predicted]",
		Short:     "Print a sample input document",
		Example:   "  labeleval sample actual > truth.json\n  labeleval sample predicted > run.json",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"actual", "predicted"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "actual"
			if len(args) == 1 {
				kind = args[0]
			}
			switch kind {
			case "actual":
				_, err := fmt.Fprint(cmd.OutOrStdout(), sampleActual)
				return err
			case "predicted":
				_, err := fmt.Fprint(cmd.OutOrStdout(), samplePredicted)
				return err
			default:
				return fmt.Errorf("%w: %q", ErrBadSample, kind)
			}
		},
	}
}
