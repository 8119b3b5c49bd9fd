package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/jayclim/CR-Data/internal/constants"
	fxmodules "github.com/jayclim/CR-Data/internal/fx"
	"github.com/jayclim/CR-Data/internal/repository"
	"github.com/jayclim/CR-Data/internal/snapshot"
)

var (
	showLimit int
	showJSON  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest stored snapshot",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 10, "rows per table")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the raw report JSON")
}

func runShow(cmd *cobra.Command, _ []string) error {
	var repo *repository.SnapshotRepository
	app := fx.New(
		fxmodules.Storage,
		fx.Supply(source(false)),
		fx.NopLogger,
		fx.Populate(&repo),
	)
	if err := app.Start(cmd.Context()); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.DatabaseTimeout)
	defer cancel()

	snap, err := repo.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no snapshot stored yet, run `crmeta snapshot` first")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showJSON {
		_, err := out.Write(append(snap.Payload, '\n'))
		return err
	}

	report, err := snapshot.Decode(snap.Payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot %s (run %s) taken %s\n", snap.ID, snap.RunID, report.Timestamp)
	snapshot.PrintSummary(out, report, showLimit)
	return nil
}
