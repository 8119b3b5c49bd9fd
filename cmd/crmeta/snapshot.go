package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/jayclim/CR-Data/internal/constants"
	fxmodules "github.com/jayclim/CR-Data/internal/fx"
	"github.com/jayclim/CR-Data/internal/service"
	"github.com/jayclim/CR-Data/internal/snapshot"
)

var snapshotPrint int

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run one meta snapshot and store it",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().IntVar(&snapshotPrint, "print", 0, "print the top N rows of the new report")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snapshots *service.SnapshotService
	app := fx.New(
		fxmodules.Module,
		fx.Supply(source(true)),
		fx.NopLogger,
		fx.Populate(&snapshots),
	)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	snap, err := snapshots.Capture(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s saved (%d players, %d decks)\n", snap.ID, snap.TotalPlayers, snap.TotalDecks)

	if snapshotPrint > 0 {
		report, err := snapshot.Decode(snap.Payload)
		if err != nil {
			return err
		}
		snapshot.PrintSummary(cmd.OutOrStdout(), report, snapshotPrint)
	}
	return nil
}
