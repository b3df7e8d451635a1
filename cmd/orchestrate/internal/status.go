package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rad/radboot/internal/acquire"
	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/config"
	"github.com/rad/radboot/internal/env"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the imported source trees",
	Long:  `Status reports, for every dependency, whether its source tree is present, the revision it was last pinned to and whether it is installed.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), component.Builtin(), env.NewLayout(cfg.Root))
}

// dependencyState summarizes one source tree.
func dependencyState(dep component.DependencySpec, layout env.Layout, stamps acquire.Stamps) string {
	if _, err := os.Stat(filepath.Join(layout.SourceDir(dep.Name), ".git")); err != nil {
		return "missing"
	}
	stamp, ok := stamps[dep.Name]
	switch {
	case !ok:
		return "present, never pinned"
	case stamp.Revision != dep.Revision:
		return fmt.Sprintf("stale: pinned %s, want %s", stamp.Revision, dep.Revision)
	}
	return fmt.Sprintf("pinned %s at %s", stamp.Revision, stamp.PinnedAt.Local().Format(time.DateTime))
}

func printStatus(w io.Writer, reg *component.Registry, layout env.Layout) error {
	stamps, err := acquire.LoadStamps(layout.StampsPath())
	if err != nil {
		return fmt.Errorf("read %s: %w", layout.StampsPath(), err)
	}
	for _, c := range reg.Components() {
		fmt.Fprintf(w, "%s\n", c.Name)
		for _, dep := range c.Dependencies {
			fmt.Fprintf(w, "  source    %-12s %s\n", dep.Name, dependencyState(dep, layout, stamps))
		}
		for _, b := range c.Builds {
			state := "not installed"
			if _, err := os.Stat(layout.InstallDir(b.Name)); err == nil {
				state = "installed in " + layout.InstallDir(b.Name)
			}
			fmt.Fprintf(w, "  install   %-12s %s\n", b.Name, state)
		}
	}
	return nil
}
