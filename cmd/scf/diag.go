package main

import (
	"context"
	"fmt"
	"time"

	"github.com/scfnet/scf-engine/internal/config"
	"github.com/scfnet/scf-engine/internal/solana"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// diagCmd restores the original diag subcommand's behavior: print DB table
// row counts, then sample up to 10 log notifications from one configured
// program (whichever the program map yields first, so not a fixed one) and
// print them, then exit (SPEC_FULL.md §12).
func diagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Check DB connectivity and sample the configured log feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.NewEntry(logrus.StandardLogger())

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := store.Connect(ctx, cfg.DBURL)
			if err != nil {
				return fmt.Errorf("diag: connecting to db: %w", err)
			}
			defer st.Close()
			if err := st.InitSchema(ctx); err != nil {
				return fmt.Errorf("diag: applying schema: %w", err)
			}

			snap, err := st.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("diag: snapshot: %w", err)
			}
			fmt.Printf("tx_queue=%d tx_raw=%d swap_event=%d lp_event=%d authority_event=%d features_latest=%d detector_signal=%d position=%d\n",
				snap.TxQueue, snap.TxRaw, snap.SwapEvent, snap.LpEvent, snap.AuthorityEvent,
				snap.FeaturesLatest, snap.DetectorSignal, snap.Position)

			if cfg.RPCWS == "" {
				fmt.Println("no RPC_WS configured; skipping log-feed sample")
				return nil
			}
			var programID string
			for id := range cfg.Programs {
				programID = id
				break
			}
			if programID == "" {
				fmt.Println("no programs configured; skipping log-feed sample")
				return nil
			}

			fmt.Printf("sampling up to 10 log notifications for program %s...\n", programID)
			client := solana.NewWSClient(cfg.RPCWS, solana.LogsFilter{MentionsProgramID: programID}, log)
			notifs := make(chan solana.LogNotification, 16)
			sampleCtx, sampleCancel := context.WithTimeout(ctx, 20*time.Second)
			defer sampleCancel()
			go client.Run(sampleCtx, notifs)

			count := 0
			for count < 10 {
				select {
				case n := <-notifs:
					fmt.Printf("  slot=%d sig=%s err=%v\n", n.Slot, n.Signature, n.Err)
					count++
				case <-sampleCtx.Done():
					fmt.Printf("sample window closed after %d notifications\n", count)
					return nil
				}
			}
			return nil
		},
	}
}
