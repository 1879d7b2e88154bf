package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"montage/internal/asset"
	"montage/internal/config"
	"montage/internal/fileutil"
	"montage/internal/project"
	"montage/internal/provider"
)

func newAssetsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assets <media file>...",
		Short: "Resolve media files and report their asset state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return runAssets(cmd.Context(), cmdCtx, cfg, cmd, args)
		},
	}
}

func runAssets(parent context.Context, cmdCtx *commandContext, cfg *config.Config, cmd *cobra.Command, files []string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := cmdCtx.newLogger(cfg)
	if err != nil {
		return err
	}

	p := project.New(project.Options{
		Logger:   logger,
		Provider: provider.NewFile(),
	})

	resolved := 0
	rows := make([][]string, 0, len(files))
	for _, file := range files {
		uri := fileutil.URIFromPath(file)
		h, err := p.CreateAssetSync(ctx, uri, asset.KindClipSource)
		if err != nil {
			rows = append(rows, []string{file, p.AssetState(uri).String(), err.Error()})
			continue
		}
		resolved++
		rows = append(rows, []string{file, p.AssetState(uri).String(), h.Local()})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"source", "state", "detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	if resolved == 0 {
		return fmt.Errorf("no sources could be resolved")
	}
	return nil
}
