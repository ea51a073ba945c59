package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/file"
)

func newRefID() string {
	return uuid.NewString()
}

// exportCmd 將帳戶交易明細附加寫入本機文字檔
func (c *cli) exportCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "export <personal-id> <account-id>",
		Short: "Append an account's transactions to a local text file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				lines, err := client.GetTransactions(ctx, args[0], id)
				if err != nil {
					return err
				}
				if err := file.NewTextExporter().Append(ctx, target, lines); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d transactions to %s\n", len(lines), target)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&target, "out", "o", "transactions.txt", "file to append to")
	return cmd
}

func (c *cli) showFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-file <path>",
		Short: "Print a previously exported transaction file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := file.NewTextExporter().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

// benchCmd 壓力測試：對同一個帳戶併發存款並計算 TPS
func (c *cli) benchCmd() *cobra.Command {
	var (
		total       int
		concurrency int
		personalID  string
		amount      int64
		duration    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Fire concurrent deposits at one account and report throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			// 準備壓測用客戶與帳戶，客戶已存在時沿用
			if err := client.CreateCustomer(ctx, "Bench", "Mark", personalID); err != nil {
				if _, getErr := client.GetCustomer(ctx, personalID); getErr != nil {
					return err
				}
			}
			accountID, err := client.CreateSavingsAccount(ctx, personalID)
			if err != nil {
				return err
			}

			var wg sync.WaitGroup
			var failed atomic.Int64
			wg.Add(total)
			sem := make(chan struct{}, concurrency)

			startTime := time.Now()
			for i := 0; i < total; i++ {
				sem <- struct{}{}
				go func(idx int) {
					defer wg.Done()
					defer func() { <-sem }()

					if _, err := client.Deposit(ctx, personalID, accountID, amount); err != nil {
						failed.Add(1)
						if idx%10000 == 0 {
							fmt.Fprintf(cmd.ErrOrStderr(), "deposit %d failed: %v\n", idx, err)
						}
					}
				}(i)
			}
			wg.Wait()
			elapsed := time.Since(startTime)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Completed %d requests in %v (%d failed)\n", total, elapsed, failed.Load())
			fmt.Fprintf(out, "TPS: %.2f\n", float64(total)/elapsed.Seconds())
			if acc, err := client.GetAccount(ctx, personalID, accountID); err == nil {
				fmt.Fprintln(out, acc.Line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&total, "count", "n", 100000, "number of deposits")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1000, "in-flight requests")
	cmd.Flags().StringVar(&personalID, "personal-id", "19700101-0000", "customer used for the run")
	cmd.Flags().Int64Var(&amount, "amount", 1, "amount per deposit")
	cmd.Flags().DurationVar(&duration, "duration", 120*time.Second, "overall deadline")
	return cmd
}
