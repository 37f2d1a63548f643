package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// accountCmd represents the account command
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the account that owns the API token",
	Long:  `Show the account that owns the API token and its remaining page credits.`,
	Args:  cobra.NoArgs,
	RunE:  runAccount,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func runAccount(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	info, err := client.GetAccountInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get account info: %w", err)
	}

	return render(cmd, info, func(w io.Writer) error {
		table := newTable(w, "Email", "Name", "Page credits")
		_ = table.Append([]string{
			info.Email,
			strings.TrimSpace(info.Firstname + " " + info.Lastname),
			strconv.Itoa(info.PageCredits),
		})
		return table.Render()
	})
}
