package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/krado/pkg/engine"
	"github.com/chazu/krado/pkg/meshio"
	"github.com/chazu/krado/pkg/preview"
)

type runFlags struct {
	out         string
	compression string
	stl         string
	png         string
	view        string
	timeout     time.Duration
	store       storeFlags
}

func newRunCmd(g *globals) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Evaluate a meshing script and write its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, g, f, args[0])
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.out, "output", "o", "", "store the final mesh under this name")
	fs.StringVar(&f.compression, "compression", "zstd", "kmsh payload compression: zstd, lz4 or none")
	fs.StringVar(&f.stl, "stl", "", "write the mesh surface as binary STL")
	fs.StringVar(&f.png, "png", "", "write a wireframe PNG preview")
	fs.StringVar(&f.view, "view", "iso", "preview projection: xy, xz, yz or iso")
	fs.DurationVar(&f.timeout, "timeout", engine.EvalTimeout, "evaluation time limit")
	f.store.register(cmd)
	return cmd
}

func runScript(cmd *cobra.Command, g *globals, f *runFlags, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := g.logger(cmd.ErrOrStderr())

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	comp, err := meshio.ParseCompression(f.compression)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	store, err := f.store.open(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	eng := engine.NewEngine(
		engine.WithStore(store),
		engine.WithCompression(comp),
		engine.WithLogger(log),
		engine.WithTimeout(f.timeout),
	)
	sess, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return fmt.Errorf("run: %s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, e.Error())
		}
		return fmt.Errorf("run: %s: %d evaluation error(s)", path, len(evalErrs))
	}

	out := cmd.OutOrStdout()
	if sess.Value != "" {
		fmt.Fprintln(out, sess.Value)
	}
	for _, name := range sess.Exports {
		fmt.Fprintf(out, "exported %s\n", name)
	}

	if f.out == "" && f.stl == "" && f.png == "" {
		return nil
	}
	if sess.Mesh == nil {
		return fmt.Errorf("run: %s: script did not create a model", path)
	}
	um, err := sess.Mesh.Build()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if f.out != "" {
		err := meshio.ExportMesh(ctx, store, f.out, um,
			meshio.WithCompression(comp), meshio.WithLogger(log))
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fmt.Fprintf(out, "wrote %s (%d points, %d elements)\n", f.out, um.NumPoints(), um.NumElements())
	}
	if f.stl != "" {
		if err := meshio.ExportSTL(f.stl, um); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", f.stl)
	}
	if f.png != "" {
		view, err := preview.ParseView(f.view)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		opts := preview.DefaultOptions()
		opts.View = view
		if err := preview.Render(um, f.png, opts); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", f.png)
	}
	return nil
}
