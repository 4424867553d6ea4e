package main

import (
	"fmt"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/route"
	"github.com/spf13/cobra"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Show where the route guard sends the stored session for path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tree := route.Default()
			m, ok := tree.Match(args[0])
			if !ok {
				return fmt.Errorf("no page at %s", args[0])
			}

			d := route.Evaluate(a.Session.Snapshot(), m.Route, args[0])
			switch d.Outcome {
			case route.Redirect:
				fmt.Fprintf(cmd.OutOrStdout(), "redirect %s\n", d.Path)
			case route.Loading:
				fmt.Fprintln(cmd.OutOrStdout(), "loading")
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "render %s", m.Route.Name)
				for k, v := range m.Params {
					fmt.Fprintf(cmd.OutOrStdout(), " %s=%s", k, v)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
