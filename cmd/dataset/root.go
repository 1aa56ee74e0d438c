package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"annotator/internal/config"
	"annotator/internal/logger"
	"annotator/internal/service/prep"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *logger.Logger
	svc *prep.Service
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dataset",
	Short: "YOLO dataset preparation tools",
	Long: `Tools for preparing a YOLO dataset: augment labeled images, split them
into train and val sets, collect the newest labels from several folders,
count annotations per class and pre-label images with the detector.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		log = logger.NewLogger(cfg)
		svc = prep.NewService(log)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes the command line in args. The logger is closed whether or not
// the command succeeded, since cobra skips post-run hooks on error.
func run(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	defer func() {
		if log != nil {
			log.Close()
			log = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(augmentCmd, splitCmd, collectCmd, statsCmd, generateCmd)
}
