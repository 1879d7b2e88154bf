package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"montage/internal/asset"
	"montage/internal/config"
	"montage/internal/fileutil"
	"montage/internal/ledger"
	"montage/internal/metrics"
	"montage/internal/project"
	"montage/internal/provider"
	"montage/internal/transcode"
)

func newGenerateCommand(cmdCtx *commandContext) *cobra.Command {
	var outputDir string
	var profileName string

	cmd := &cobra.Command{
		Use:   "generate <media file>...",
		Short: "Generate proxies for media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cmdCtx, cfg, args, outputDir, profileName)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for proxy files (defaults to paths.proxy_dir)")
	cmd.Flags().StringVar(&profileName, "profile", "", "Override the profile name recorded for these proxies")
	return cmd
}

func runGenerate(parent context.Context, cmdCtx *commandContext, cfg *config.Config, files []string, outputDir, profileName string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := cmdCtx.newLogger(cfg)
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg.Paths.LedgerDir)
	if err != nil {
		return err
	}
	defer store.Close()

	var m *metrics.Metrics
	if bind := strings.TrimSpace(cfg.Paths.MetricsBind); bind != "" {
		m = metrics.New()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(bind, mux); err != nil {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()
	}

	profile := cfg.Proxy.Profile
	if profileName != "" {
		profile.Name = profileName
	}
	location := outputDir
	if location == "" {
		location = cfg.Paths.ProxyDir
	}

	completed := make(chan struct{}, 1)
	p := project.New(project.Options{
		Logger:          logger,
		Provider:        provider.NewFile(),
		Engine:          transcode.NewFFmpeg(transcode.WithBinary(cfg.Transcode.FFmpegBinary), transcode.WithLogger(logger)),
		Metrics:         m,
		Ledger:          store,
		UseProxies:      cfg.Proxy.UseInTimelines,
		ProxiesLocation: location,
		Events: project.Events{
			ProxyCompleted: func() { completed <- struct{}{} },
			ProxyCancelled: func() { completed <- struct{}{} },
		},
	})
	p.SetProxyProfile(profile)

	var failed []string
	for _, file := range files {
		uri := fileutil.URIFromPath(file)
		if _, err := p.CreateAssetSync(ctx, uri, asset.KindClipSource); err != nil {
			failed = append(failed, file)
			logger.Error("could not resolve source", "file", file, "error", err)
		}
	}
	if len(failed) == len(files) {
		return fmt.Errorf("no sources could be resolved")
	}

	if err := p.StartProxyCreation(ctx); err != nil {
		return err
	}

	select {
	case <-completed:
	case <-ctx.Done():
		if err := p.CancelProxyCreation(); err != nil {
			logger.Warn("cancel failed", "error", err)
		}
		<-completed
	}

	rows := make([][]string, 0, len(files))
	for _, file := range files {
		uri := fileutil.URIFromPath(file)
		status := "failed"
		proxyPath := ""
		if entry, ok := p.ProxyFor(uri); ok {
			status = "ok"
			if path, err := fileutil.PathFromURI(entry.ProxyID); err == nil {
				proxyPath = path
			}
		}
		rows = append(rows, []string{file, status, proxyPath})
	}
	fmt.Println(renderTable(
		[]string{"source", "status", "proxy"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	return nil
}
