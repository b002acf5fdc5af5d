package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCmd(flags *globalFlags) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "uninstall <name>...",
		Short: "Remove installed packages",
		Args:  cobra.MinimumNArgs(1),
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

			fmt.Printf("Uninstalling %d package(s)...\n", len(args))

			var failed int
			for _, name := range args {
				pkg, err := mgr.Uninstall(name, purge)
				if err != nil {
					fmt.Printf("\n%s %s: %v\n", red("✗"), name, err)
					failed++
					continue
				}
				fmt.Printf("\n%s %s%s%s\n", green("✓"), bold(pkg.Name), bold("-"), bold(pkg.Version))
			}

			if failed > 0 {
				return fmt.Errorf("failed to uninstall %d package(s)", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also drop cached archives")
	return cmd
}
