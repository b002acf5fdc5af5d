package cli

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/manager"
)

func newInstallCmd(flags *globalFlags) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "install <name>=<url>...",
		Short: "Download and extract packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs := make([]domain.Package, 0, len(args))
			for _, arg := range args {
				pkg, err := parsePackageArg(arg, version)
				if err != nil {
					return err
				}
				pkgs = append(pkgs, pkg)
			}

			e, err := loadEnv(flags)
			if err != nil {
				return err
			}

			mgr, closeFn, err := e.newManager()
			if err != nil {
				return err
			}
			defer closeFn()

			mu := &sync.Mutex{}
			var errs []error
			output := make(map[string]string)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(min(len(pkgs), e.cfg.MaxParallel))

			// Bars only make sense for a single package; parallel installs
			// report when they finish.
			single := len(pkgs) == 1

			for _, pkg := range pkgs {
				pkg := pkg
				g.Go(func() error {
					var onProgress manager.ProgressFunc
					if single {
						bar := newBar(0, fmt.Sprintf("Extracting %s", pkg.Name))
						onProgress = func(p domain.Progress) {
							if bar.GetMax64() != p.Total && p.Total > 0 {
								bar.ChangeMax64(p.Total)
							}
							bar.Set64(p.Done)
						}
						defer bar.Finish()
					}

					installed, err := mgr.Install(ctx, pkg, onProgress)

					mu.Lock()
					defer mu.Unlock()
					switch {
					case errors.Is(err, manager.ErrAlreadyInstalled):
						output[pkg.Name] = fmt.Sprintf("%s %s already installed", yellow("!"), bold(pkg.Name))
					case err != nil:
						errs = append(errs, fmt.Errorf("%s: %w", pkg.Name, err))
					default:
						output[pkg.Name] = fmt.Sprintf("%s %s%s%s %s\n  %s %s",
							green("✓"), bold(installed.Name), bold("-"), bold(installed.Version),
							dim(formatSize(installed.ExtractedSize)),
							cyan("path:"), installed.Path)
					}
					return nil
				})
			}
			_ = g.Wait()

			fmt.Println()
			for _, pkg := range pkgs {
				if msg, ok := output[pkg.Name]; ok {
					fmt.Println(msg)
				}
			}

			if len(errs) > 0 {
				for _, failure := range errs {
					fmt.Printf("%s %s\n", red("✗"), failure)
				}
				return fmt.Errorf("failed to install %d package(s)", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&version, "version", "v", "latest", "Package version")
	return cmd
}

// parsePackageArg splits "name=url". The name must be a single path element.
func parsePackageArg(arg, version string) (domain.Package, error) {
	name, url, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if !ok || name == "" || url == "" {
		return domain.Package{}, fmt.Errorf("invalid package %q: want <name>=<url>", arg)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return domain.Package{}, fmt.Errorf("invalid package name %q", name)
	}
	if version == "" {
		version = "latest"
	}

	return domain.Package{Name: name, Version: version, DownloadURL: url}, nil
}
