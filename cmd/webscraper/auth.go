package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"webscraper/pkg/auth"
	"webscraper/pkg/logger"
	"webscraper/pkg/ui"
	"webscraper/pkg/webscraper"
)

var (
	loginForce    bool
	loginNoVerify bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API tokens",
	Long: `Manage API tokens stored on this machine.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The WEBSCRAPER_API_TOKEN environment variable (read only)

Never share your token or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store an API token securely",
	Long: `Store an API token in the system keychain or encrypted file.

The token is stored under the given name, "default" when omitted. It is
checked against the API before being stored unless --no-verify is given.`,
	Example: `  # Interactive login
  webscraper auth login

  # Store a second token under its own name
  webscraper auth login staging --token $STAGING_TOKEN`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Long:  `List stored tokens with the token itself masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain where to find your API token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(guideCmd)

	loginCmd.Flags().BoolVar(&loginForce, "force", false, "replace an existing token without asking")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "store the token without checking it")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	out := cmd.OutOrStdout()
	input := bufio.NewReader(cmd.InOrStdin())

	if existing, _ := manager.Retrieve(name); existing != nil && !loginForce {
		fmt.Fprintf(out, "Token '%s' already exists. Replace it? (y/N): ", name)
		answer, _ := input.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			return nil
		}
	}

	token := apiToken
	if token == "" {
		auth.ShowTokenGuide(out)
		fmt.Fprintln(out)
		fmt.Fprint(out, "API token (hidden): ")
		token, err = readSecret(cmd, input)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if err := auth.ValidateTokenFormat(token); err != nil {
		return err
	}

	account := &auth.Account{Name: name, Token: strings.TrimSpace(token), BaseURL: baseURL}

	if !loginNoVerify {
		info, err := verifyToken(cmd.Context(), account)
		if err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
		ui.PrintInfo("Authenticated as", info.Email)
	}

	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Token saved: %s (%s)", name, auth.MaskToken(account.Token)))
	if name != auth.DefaultAccountName {
		fmt.Fprintf(out, "\nUse it with: webscraper --account %s <command>\n", name)
	}
	return nil
}

func verifyToken(ctx context.Context, account *auth.Account) (*webscraper.AccountInfo, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	cfg.API.Token = account.Token
	if account.BaseURL != "" {
		cfg.API.BaseURL = account.BaseURL
	}

	client, err := webscraper.NewClientFromConfig(cfg, logger.GetLogger())
	if err != nil {
		return nil, err
	}
	return client.GetAccountInfo(ctx)
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccountName
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("Token removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	sanitized := make([]*auth.Account, 0, len(accounts))
	for _, account := range accounts {
		sanitized = append(sanitized, auth.SanitizeAccount(account))
	}

	return render(cmd, sanitized, func(w io.Writer) error {
		if len(sanitized) == 0 {
			fmt.Fprintln(w, "No stored tokens. Use 'webscraper auth login' to add one.")
			return nil
		}

		table := newTable(w, "Name", "Token", "Base URL", "Last modified")
		for _, account := range sanitized {
			modified := ""
			if !account.LastModified.IsZero() {
				modified = account.LastModified.Format("2006-01-02 15:04:05")
			}
			_ = table.Append([]string{account.Name, account.Token, account.BaseURL, modified})
		}
		return table.Render()
	})
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(cmd *cobra.Command, input *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err == nil {
			return string(secret), nil
		}
	}

	line, err := input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
