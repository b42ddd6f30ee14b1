//go:generate go run github.com/tiiuae/rclgo/cmd/rclgo-gen generate -d rclgo_gen --include-go-package-deps ./...

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/3DRX/point-normal-annotator/annotator"
	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/3DRX/point-normal-annotator/config"
	"github.com/3DRX/point-normal-annotator/consts"
	roschannel "github.com/3DRX/point-normal-annotator/ros_channel"
	viewerchannel "github.com/3DRX/point-normal-annotator/viewer_channel"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	variant string
)

var rootCmd = &cobra.Command{
	Use:   "pna",
	Short: "Annotate a ROS 2 point cloud stream with surface normals and arrow markers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := config.LoadCfg(cfgPath, variant)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
		return run(cmd.Context(), cfg)
	},
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", consts.DEFAULT_CONFIG_FILE, "JSON config file, defaults are used when it does not exist")
	rootCmd.Flags().StringVar(&variant, "variant", "", `annotator preset, "boundary" or "normals" (overrides the config file)`)
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rc := roschannel.InitROSChannel(cfg)
	sinks := []annotator.Sink{rc}
	viewerErr := make(chan error, 1)
	if cfg.ViewerAddr != "" {
		vc := viewerchannel.InitViewerChannel(cfg.ViewerAddr)
		sinks = append(sinks, vc)
		go func() {
			if err := vc.Spin(ctx); err != nil {
				viewerErr <- fmt.Errorf("viewer feed: %w", err)
				cancel()
			}
		}()
	}
	a := annotator.New(cfg.Annotator, annotator.Tee(sinks...))
	slog.Info("starting annotator",
		"variant", cfg.Variant,
		"downsampling", cfg.Annotator.EnableDownsampling,
		"boundary_filter", cfg.Annotator.EnableBoundaryFilter,
	)

	err := rc.Spin(ctx, func(pc *cloud.PointCloud) {
		// errors are logged by the annotator, the next cloud starts afresh
		_ = a.OnPointCloud(pc)
	})
	select {
	case verr := <-viewerErr:
		return verr
	default:
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}
