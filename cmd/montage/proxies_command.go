package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/ledger"
)

func newProxiesCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxies",
		Short: "Proxy ledger utilities",
	}
	cmd.AddCommand(newProxiesListCommand(cmdCtx))
	cmd.AddCommand(newProxiesForgetCommand(cmdCtx))
	return cmd
}

func newProxiesListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.Paths.LedgerDir)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no proxies recorded")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.SourceID,
					rec.ProxyID,
					rec.Profile,
					rec.CreatedAt.Local().Format(time.RFC3339),
				})
			}
			fmt.Println(renderTable(
				[]string{"source", "proxy", "profile", "created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newProxiesForgetCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <source>",
		Short: "Remove a proxy record so the source is re-encoded next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.Paths.LedgerDir)
			if err != nil {
				return err
			}
			defer store.Close()

			existed, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !existed {
				fmt.Printf("no record for %s\n", args[0])
				return nil
			}
			fmt.Printf("forgot proxy for %s\n", args[0])
			return nil
		},
	}
}
