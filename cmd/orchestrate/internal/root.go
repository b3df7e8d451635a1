package internal

import (
	"os"

	"github.com/qiniu/x/log"
	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/config"
	"github.com/rad/radboot/internal/orchestrator"
	"github.com/rad/radboot/internal/proc"
	"github.com/spf13/cobra"
)

var (
	rootDir    string
	verbose    bool
	skipChecks bool

	// exitStatus is set by the root command's run.
	exitStatus int
)

var rootCmd = &cobra.Command{
	Use:   "orchestrate [component...]",
	Short: "orchestrate prepares the project's external dependencies",
	Long: `orchestrate clones each selected component's source trees at their pinned
revisions, builds and installs them with CMake below imported/, and then
generates the project's own build files where a toolchain file is required.

With no arguments, or with "all" among them, the default components are
processed. Unknown component names are reported and skipped.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runOrchestrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip the git/cmake version checks")
}

// Execute runs the command line and returns the process exit status.
// This is called by main.main().
func Execute() int {
	exitStatus = orchestrator.StatusOK
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%s: %v", orchestrator.Kind(err), err)
		return orchestrator.StatusFailed
	}
	return exitStatus
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetOutputLevel(log.Ldebug)
	} else {
		log.SetOutputLevel(log.Linfo)
	}
	return nil
}

func runOrchestrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	start, err := os.Getwd()
	if err != nil {
		return err
	}

	d := orchestrator.NewFromConfig(orchestrator.Setup{
		Config:     cfg,
		Registry:   component.Builtin(),
		Runner:     proc.New(proc.WithStdout(cmd.OutOrStdout()), proc.WithStderr(cmd.ErrOrStderr())),
		Start:      start,
		CheckTools: !skipChecks,
	})
	exitStatus = d.Execute(cmd.Context(), args)
	return nil
}
