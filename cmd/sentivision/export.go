package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/config"
)

func newExportCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-clients",
		Short: "Rewrite the clients file from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withService(cmd.Context(), func(_ *config.Config, svc *service.Service) error {
				res, err := svc.ExportClients(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Wrote %d clients to %s\n", res.Clients, res.Path)
				if len(res.Skipped) > 0 {
					fmt.Fprintf(out, "Skipped without sources: %s\n", strings.Join(res.Skipped, ", "))
				}
				return nil
			})
		},
	}
}
