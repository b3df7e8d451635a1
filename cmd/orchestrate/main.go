// Command orchestrate fetches, builds and installs the project's pinned
// external dependencies, then generates the project's build files.
//
// Usage:
//
//	orchestrate [component...]
//	orchestrate list
//	orchestrate status
package main

import (
	"os"

	"github.com/rad/radboot/cmd/orchestrate/internal"
)

func main() {
	os.Exit(internal.Execute())
}
