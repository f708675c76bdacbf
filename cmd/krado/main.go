// Command krado runs meshing scripts and inspects the meshes they export.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/krado/pkg/logging"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	logLevel string
	logJSON  bool
}

func (g *globals) logger(w io.Writer) *logging.Logger {
	level := logging.ParseLevel(g.logLevel)
	if g.logJSON {
		return logging.NewJSONLoggerTo(w, level)
	}
	return logging.NewTextLoggerTo(w, level)
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "krado",
		Short:         "Mesh B-rep models from scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "log as JSON instead of text")

	root.AddCommand(newRunCmd(g), newInfoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "krado:", err)
		os.Exit(1)
	}
}
