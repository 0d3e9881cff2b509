package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/tasks"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sweepOptions struct {
	olderThan time.Duration
	dryRun    bool
	enqueue   bool
}

func newSweepOrphansCommand() *cobra.Command {
	opts := &sweepOptions{}
	cmd := &cobra.Command{
		Use:   "sweep-orphans",
		Short: "Remove stored photos that no listing references",
		Long: "Scans the upload journal for objects left behind by failed writes and removes them from the bucket.\n" +
			"Pending uploads younger than the grace period are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.olderThan, "older-than", 0, "grace period for pending uploads (default ORPHAN_GRACE_PERIOD)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report orphans without removing them")
	cmd.Flags().BoolVar(&opts.enqueue, "enqueue", false, "hand the sweep to the running worker instead of sweeping in-process")
	return cmd
}

func runSweep(cmd *cobra.Command, opts *sweepOptions) error {
	ctx := cmd.Context()
	cfg, appLogger, err := loadConfig()
	if err != nil {
		return err
	}

	if opts.enqueue {
		if cfg.RedisAddr == "" {
			return errors.New("--enqueue requires REDIS_ADDR")
		}
		task, err := tasks.NewOrphanSweepTask(opts.dryRun)
		if err != nil {
			return err
		}
		client := asynq.NewClient(tasks.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		defer client.Close()
		info, err := client.EnqueueContext(ctx, task)
		if err != nil {
			return fmt.Errorf("enqueue orphan sweep: %w", err)
		}
		appLogger.Info("Orphan sweep enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
		return nil
	}

	a, err := openStore(ctx, cfg, appLogger, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.connectStorage(ctx); err != nil {
		return err
	}
	if err := a.connectJournal(ctx); err != nil {
		return err
	}

	grace := cfg.OrphanGracePeriod
	if opts.olderThan > 0 {
		grace = opts.olderThan
	}
	report, err := a.orphanSweeper(grace).Sweep(ctx, opts.dryRun)
	if err != nil {
		return fmt.Errorf("sweep orphans: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d reconciled=%d purged=%d failed=%d dry_run=%t\n",
		report.Scanned, report.Reconciled, report.Purged, report.Failed, opts.dryRun)
	if report.Failed > 0 {
		return fmt.Errorf("%d orphaned objects could not be removed", report.Failed)
	}
	return nil
}
