package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teamcutter/unarc/internal/archive"
	"github.com/teamcutter/unarc/internal/domain"
)

func newExtractCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive> <dst>",
		Short: "Extract an archive into a directory",
		Args:  cobra.ExactArgs(2),
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

			u, err := a.Extract(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			defer u.Close()

			p, err := follow(cmd.Context(), u, e.cfg.PollInterval(), fmt.Sprintf("Extracting %s", a.Path()))
			if err != nil {
				return err
			}

			fmt.Printf("%s %s extracted to %s %s\n", green("✓"), bold(formatSize(p.Done)), cyan(args[1]),
				dim(fmt.Sprintf("(%.0f%%)", p.Percent())))
			return nil
		},
	}
}

// follow renders u on a progress bar until the process exits.
func follow(ctx context.Context, u domain.Updater, interval time.Duration, desc string) (domain.Progress, error) {
	p := u.Progress()
	bar := newBar(p.Total, desc)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p = u.Progress()
			bar.Set64(p.Done)
		case <-u.Done():
			err := u.Wait(ctx)
			p = u.Progress()
			bar.Set64(p.Done)
			if err != nil {
				return p, err
			}
			bar.Finish()
			return p, nil
		case <-ctx.Done():
			u.Close()
			return u.Progress(), ctx.Err()
		}
	}
}

// An unknown total renders as a spinner.
func newBar(total int64, desc string) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
