package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pairpoints-cli",
		Short: "PairPoints CLI tool",
		Long:  `A command line interface for interacting with the PairPoints API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the PairPoints API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd(), giveCmd(), deductCmd(), balanceCmd(), historyCmd(), timeoutCmd(), ledgerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <display-name>",
		Short: "Create an account and print its pairing code",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts", map[string]any{"display_name": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account and its balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pair <account-id> <pairing-code>",
		Short: "Pair with the account that owns the pairing code",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/connections", map[string]any{
				"account_id":   args[0],
				"pairing_code": args[1],
			})
		},
	})

	return cmd
}

func giveCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "give <connection-id> <sender-id> <receiver-id> <points>",
		Short: "Give points to the partner",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			transfer("GIVE", args, message)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Optional message attached to the transfer")

	return cmd
}

func deductCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "deduct <connection-id> <sender-id> <receiver-id> <points>",
		Short: "Deduct points from the partner",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			transfer("DEDUCT", args, message)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Optional message attached to the transfer")

	return cmd
}

func transfer(kind string, args []string, message string) {
	points, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		fmt.Printf("Invalid points value %q: %v\n", args[3], err)
		os.Exit(1)
	}
	if kind == "DEDUCT" && points > 0 {
		points = -points
	}

	body := map[string]any{
		"connection_id": args[0],
		"sender_id":     args[1],
		"receiver_id":   args[2],
		"points":        points,
		"kind":          kind,
	}
	if message != "" {
		body["message"] = message
	}

	postJSON("/api/v1/transfers", body)
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account's point balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			showBalance(args[0])
		},
	}
}

func showBalance(accountID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/accounts/" + accountID)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Failed to fetch account (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var account struct {
		DisplayName string `json:"display_name"`
		Balance     int64  `json:"balance"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d points\n", account.DisplayName, account.Balance)
}

func historyCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history <connection-id>",
		Short: "List transactions for a connection",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON(fmt.Sprintf("/api/v1/connections/%s/transactions?limit=%d&offset=%d",
				args[0], limit, offset))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of transactions to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of transactions to skip")

	return cmd
}

func timeoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeout",
		Short: "Timeout operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "request <user-id> <connection-id>",
		Short: "Request a 30 minute cooldown on a connection",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/timeouts", map[string]any{
				"user_id":       args[0],
				"connection_id": args[1],
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <connection-id>",
		Short: "Show whether transactions are disabled for a connection",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/connections/" + args[0] + "/timeout")
		},
	})

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that stored balances match the transaction log",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	})

	return cmd
}

func checkConsistency() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result struct {
		Consistent bool            `json:"consistent"`
		Mismatches json.RawMessage `json:"mismatches"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if result.Consistent {
		fmt.Println("Consistency check PASSED")
		return
	}

	fmt.Printf("Consistency check FAILED\nMismatches: %s\n", string(result.Mismatches))
	os.Exit(1)
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func postJSON(path string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}

	fmt.Println(pretty.String())

	if resp.StatusCode >= http.StatusBadRequest {
		os.Exit(1)
	}
}
