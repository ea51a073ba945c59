package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	grpcpkg "github.com/JoeShih716/go-bank-ledger/pkg/grpc"
	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
)

type cli struct {
	addr    string
	timeout time.Duration
	verbose bool
	pool    *grpcpkg.Pool
}

func main() {
	c := &cli{}
	root := c.rootCmd()
	err := root.ExecuteContext(context.Background())
	if c.pool != nil {
		_ = c.pool.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bankctl",
		Short:        "Command line client for the bank ledger server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.addr, "addr", "localhost:50051", "ledger server address")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "per-call timeout")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log every rpc call")

	root.AddCommand(
		c.customerCmd(),
		c.accountCmd(),
		c.exportCmd(),
		c.showFileCmd(),
		c.checkpointCmd(),
		c.benchCmd(),
	)
	return root
}

func (c *cli) client() (*grpc_adapter.Client, error) {
	if c.pool == nil {
		opts := []grpcpkg.PoolOption{grpcpkg.WithJSONCodec()}
		if c.verbose {
			log := logger.New(logger.Config{Level: "debug", Prefix: "bankctl"}, os.Stderr)
			opts = append(opts, grpcpkg.WithInterceptor(grpcpkg.UnaryClientLogger(log)))
		}
		c.pool = grpcpkg.NewPool(opts...)
	}
	conn, err := c.pool.GetConnection(c.addr)
	if err != nil {
		return nil, fmt.Errorf("did not connect: %w", err)
	}
	return grpc_adapter.NewClient(conn), nil
}

// call 建立客戶端並在逾時 context 中執行 fn
func (c *cli) call(cmd *cobra.Command, fn func(ctx context.Context, client *grpc_adapter.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()
	return fn(ctx, client)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	return id, nil
}

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

func (c *cli) customerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "customer", Short: "Manage customers"}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <personal-id> <name> <surname>",
		Short: "Register a new customer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				if err := client.CreateCustomer(ctx, args[1], args[2], args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <personal-id>",
		Short: "Show a customer and their accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				info, err := client.GetCustomer(ctx, args[0])
				if err != nil {
					return err
				}
				for _, line := range info.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				list, err := client.ListCustomers(ctx)
				if err != nil {
					return err
				}
				for _, s := range list.Customers {
					fmt.Fprintln(cmd.OutOrStdout(), s.Line)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "index <personal-id>",
		Short: "Print the registration index of a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				idx, err := client.FindCustomerIndex(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), idx)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "at <index>",
		Short: "Show the customer at a registration index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				info, err := client.GetCustomerByIndex(ctx, idx)
				if err != nil {
					return err
				}
				return printJSON(cmd, info)
			})
		},
	})

	var name, surname string
	rename := &cobra.Command{
		Use:   "rename <personal-id>",
		Short: "Change a customer's name and/or surname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				changed, err := client.RenameCustomer(ctx, name, surname, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "changed:", changed)
				return nil
			})
		},
	}
	rename.Flags().StringVar(&name, "name", "", "new name (empty keeps the current one)")
	rename.Flags().StringVar(&surname, "surname", "", "new surname (empty keeps the current one)")
	cmd.AddCommand(rename)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <personal-id>",
		Short: "Remove a customer and close all their accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				info, err := client.DeleteCustomer(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), info.Customer)
				for _, line := range info.Closed {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) accountCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "account", Short: "Manage accounts"}

	open := func(use, short string, create func(*grpc_adapter.Client, context.Context, string) (int64, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <personal-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
					id, err := create(client, ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), id)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(
		open("open-savings", "Open a savings account", (*grpc_adapter.Client).CreateSavingsAccount),
		open("open-credit", "Open a credit account", (*grpc_adapter.Client).CreateCreditAccount),
	)

	var ref string
	move := func(use, short string, withRef func(*grpc_adapter.Client, context.Context, string, string, int64, int64) (*grpc_adapter.AccountResponse, error)) *cobra.Command {
		m := &cobra.Command{
			Use:   use + " <personal-id> <account-id> <amount>",
			Short: short,
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[1])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
					refID := ref
					if refID == "" {
						refID = newRefID()
					}
					acc, err := withRef(client, ctx, refID, args[0], id, amount)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), acc.Line)
					return nil
				})
			},
		}
		m.Flags().StringVar(&ref, "ref", "", "reference id (uuid) for safe retries")
		return m
	}
	cmd.AddCommand(
		move("deposit", "Deposit into an account", (*grpc_adapter.Client).DepositWithRef),
		move("withdraw", "Withdraw from an account", (*grpc_adapter.Client).WithdrawWithRef),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "close <personal-id> <account-id>",
		Short: "Close an account and print its closing summary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				summary, err := client.CloseAccount(ctx, args[0], id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary.Line)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <personal-id> <account-id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				acc, err := client.GetAccount(ctx, args[0], id)
				if err != nil {
					return err
				}
				return printJSON(cmd, acc)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "transactions <personal-id> <account-id>",
		Short: "List the transactions of an account",
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
				for _, line := range lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "id-at <personal-id> <index>",
		Short: "Print the id of a customer's n-th account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				id, err := client.GetAccountIDByIndex(ctx, args[0], idx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) checkpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Ask the server to persist a snapshot and truncate its WAL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) error {
				if err := client.Checkpoint(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "checkpoint done")
				return nil
			})
		},
	}
}
