package internal

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rad/radboot/internal/component"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available components",
	Long:  `List prints every component, the steps it runs and whether it is selected by default.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printComponents(cmd.OutOrStdout(), component.Builtin())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func printComponents(w io.Writer, reg *component.Registry) {
	defaults := reg.Defaults()
	for _, c := range reg.Components() {
		header := c.Name
		if slices.Contains(defaults, c.Name) {
			header += " (default)"
		}
		if c.Description != "" {
			header += ": " + c.Description
		}
		fmt.Fprintln(w, header)

		steps, _ := reg.Resolve([]string{c.Name})
		for _, s := range steps {
			switch s.Kind {
			case component.Acquire:
				fmt.Fprintf(w, "  acquire %-12s %s@%s\n", s.Name(), s.Dependency.Remote, s.Dependency.Revision)
			case component.Build:
				line := fmt.Sprintf("  build   %-12s", s.Name())
				if len(s.Build.EnvFromInstall) > 0 {
					var refs []string
					for k, ref := range s.Build.EnvFromInstall {
						refs = append(refs, k+"<-"+ref)
					}
					slices.Sort(refs)
					line += " uses " + strings.Join(refs, ", ")
				}
				fmt.Fprintln(w, strings.TrimRight(line, " "))
			}
		}
	}
	fmt.Fprintf(w, "\ndefault: %s\n", strings.Join(defaults, " "))
}
