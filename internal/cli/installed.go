package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInstalledCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(flags)
			if err != nil {
				return err
			}

			mgr, closeFn, err := e.newManager()
			if err != nil {
				return err
			}
			defer closeFn()

			pkgs, err := mgr.List()
			if err != nil {
				return err
			}

			if len(pkgs) == 0 {
				fmt.Printf("\n%s No packages installed\n", dim("○"))
				return nil
			}

			fmt.Printf("Installed packages:\n\n")
			for _, pkg := range pkgs {
				fmt.Printf(" %s  %s  %s\n",
					bold(fmt.Sprintf("%s-%s", pkg.Name, pkg.Version)),
					dim(formatSize(pkg.ExtractedSize)),
					pkg.Path)
			}
			return nil
		},
	}
}
