package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatch"
)

func newRoutesCmd() *cobra.Command {
	var routesFile string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table and the filter chains of each target",
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := dispatch.LoadRouteTable(routesFile)
			if err != nil {
				return err
			}
			reg, err := dispatch.NewRegistry(notesHandler())
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), routes, reg)
		},
	}
	cmd.Flags().StringVarP(&routesFile, "routes", "r", "routes.yaml", "route file path")
	return cmd
}

func printRoutes(w io.Writer, routes *dispatch.RouteTable, reg *dispatch.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTARGET\tSTATUS")
	for _, path := range routes.Paths() {
		target, err := routes.Resolve(path)
		if err != nil {
			return err
		}
		status := "ok"
		if _, _, err := reg.Resolve(target); err != nil {
			status = err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", path, target, status)
	}
	if fb := routes.Fallback(); fb != "" {
		fmt.Fprintf(tw, "*\t%s\tfallback\n", fb)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, name := range reg.Names() {
		ht, _ := reg.Lookup(name)
		fmt.Fprintf(w, "\n%s: %s\n", name, strings.Join(ht.Actions(), ", "))
		for _, phase := range []dispatch.Phase{
			dispatch.PhaseBefore, dispatch.PhaseAfter, dispatch.PhaseCatch, dispatch.PhaseFinally,
		} {
			for _, f := range ht.Chain(phase) {
				fmt.Fprintf(w, "  %-8s %-16s priority=%d", phase, f.Name(), f.Priority())
				if only := f.Only(); len(only) > 0 {
					fmt.Fprintf(w, " only=%s", strings.Join(only, ","))
				}
				if unless := f.Unless(); len(unless) > 0 {
					fmt.Fprintf(w, " unless=%s", strings.Join(unless, ","))
				}
				fmt.Fprintln(w)
			}
		}
	}
	return nil
}
