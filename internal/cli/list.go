package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/archive"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive>",
		Short: "List the files in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(flags)
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			a, err := archive.Open(args[0], e.archiveOptions()...)
			if err != nil {
				return err
			}

			stop := withSpinner(cmd.Context(), "Reading archive...")
			entries, err := a.Entries(cmd.Context())
			stop()
			if err != nil {
				return err
			}
			e.logger.Debug("listed archive", zap.String("archive", a.Path()), zap.Int("entries", len(entries)))

			var total int64
			for _, entry := range entries {
				total += entry.Size
				fmt.Printf(" %10s  %s\n", dim(formatSize(entry.Size)), entry.Path)
			}
			fmt.Printf("\n%s %d file(s), %s\n", green("✓"), len(entries), bold(formatSize(total)))
			return nil
		},
	}
}
