// cmd/filestorectl is the CLI entry-point built with Cobra for driving an
// adminapi server over HTTP.
//
// Usage:
//
//	filestorectl update report.txt "hello" 2        --server http://localhost:8090 --api-key <api-key>
//	filestorectl restore                            --server http://localhost:8090
//	filestorectl status                              --server http://localhost:8090
//	filestorectl hash-key s3cr3t
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"filestore-consensus/internal/apiclient"
)

var (
	serverAddr string
	timeout    time.Duration
	apiKey     string
)

func main() {
	root := &cobra.Command{
		Use:   "filestorectl",
		Short: "CLI client for the filestore consensus admin API",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"http://localhost:8090", "adminapi server address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "operator API key, used to authenticate before the call")

	root.AddCommand(updateCmd(), restoreCmd(), retryUnresponsiveCmd(), statusCmd(), hashKeyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func authenticatedClient(ctx context.Context) (*apiclient.Client, error) {
	c := apiclient.New(serverAddr, timeout)
	if apiKey == "" {
		return c, nil
	}
	if err := c.Login(ctx, apiKey); err != nil {
		return nil, err
	}
	return c, nil
}

func updateCmd() *cobra.Command {
	var ackTimeoutMs, retryLimit, retryPeriodMs int
	cmd := &cobra.Command{
		Use:   "update <name> <content> <version>",
		Short: "Drive update-consensus for a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := authenticatedClient(ctx)
			if err != nil {
				return err
			}
			version, err := parseInt(args[2])
			if err != nil {
				return err
			}
			resp, err := c.Update(ctx, apiclient.UpdateRequest{
				Name: args[0], Content: args[1], Version: version,
				AckTimeoutMs: ackTimeoutMs, RetryLimit: retryLimit, RetryPeriodMs: retryPeriodMs,
			})
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
	cmd.Flags().IntVar(&ackTimeoutMs, "ack-timeout-ms", 50, "per-attempt ACK wait")
	cmd.Flags().IntVar(&retryLimit, "retry-limit", 3, "per-replica retry budget")
	cmd.Flags().IntVar(&retryPeriodMs, "retry-period-ms", 10, "delay between retry rounds")
	return cmd
}

func restoreCmd() *cobra.Command {
	var retryLimit, retryPeriodMs int
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Drive restore-consensus and print the reconciled file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := authenticatedClient(ctx)
			if err != nil {
				return err
			}
			resp, err := c.Restore(ctx, apiclient.RestoreRequest{RetryLimit: retryLimit, RetryPeriodMs: retryPeriodMs})
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
	cmd.Flags().IntVar(&retryLimit, "retry-limit", 3, "per-replica retry budget")
	cmd.Flags().IntVar(&retryPeriodMs, "retry-period-ms", 10, "delay between retry rounds")
	return cmd
}

func retryUnresponsiveCmd() *cobra.Command {
	var longRetryLimit, retryIntervalMs int
	cmd := &cobra.Command{
		Use:   "retry-unresponsive <name> <content> <version>",
		Short: "Drive the long-retry sweep for unresponsive replicas",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := authenticatedClient(ctx)
			if err != nil {
				return err
			}
			version, err := parseInt(args[2])
			if err != nil {
				return err
			}
			resp, err := c.RetryUnresponsive(ctx, apiclient.RetryUnresponsiveRequest{
				Name: args[0], Content: args[1], Version: version,
				LongRetryLimit: longRetryLimit, RetryIntervalMs: retryIntervalMs,
			})
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
	cmd.Flags().IntVar(&longRetryLimit, "long-retry-limit", 3, "long-retry rounds")
	cmd.Flags().IntVar(&retryIntervalMs, "retry-interval-ms", 20, "delay between long-retry rounds")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cluster's current bookkeeping state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := authenticatedClient(ctx)
			if err != nil {
				return err
			}
			resp, err := c.Status(ctx)
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
}

func hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Bcrypt-hash an operator API key for --api-key-hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hashed))
			return nil
		},
	}
}

func parseInt(s string) (int, error) {
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
