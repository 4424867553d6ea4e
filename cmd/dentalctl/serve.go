package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local portal",
		Long: `Serve the portal's role-prefixed pages as JSON views on localhost,
gated by the route guard, over the stored session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run()
		},
	}

	cmd.Flags().Int("port", 8080, "portal HTTP port")
	cmd.Flags().Duration("expiry-check-interval", 0, "how often to check token expiry")

	return cmd
}
