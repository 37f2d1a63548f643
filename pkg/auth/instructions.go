package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide writes instructions for obtaining an API token
func ShowTokenGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "🔑 WEB SCRAPER CLOUD API TOKEN")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Every API call is authenticated with a personal API token.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Log in to https://cloud.webscraper.io")
	fmt.Fprintln(w, "STEP 2: Open the 'API' page from the account menu")
	fmt.Fprintln(w, "STEP 3: Copy the API token shown there")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Then either:")
	fmt.Fprintln(w, "   • run 'webscraper auth login' and paste the token when prompted")
	fmt.Fprintf(w, "   • or export %s=<token> in your shell\n", TokenEnvVar)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚠️  Anyone holding the token can spend your page credits.")
	fmt.Fprintln(w, "   Regenerate it from the same page if it leaks.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

// ValidateTokenFormat checks that a pasted token looks usable
func ValidateTokenFormat(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is empty", ErrInvalidCredentials)
	}
	if len(token) < 16 {
		return fmt.Errorf("%w: token is too short", ErrInvalidCredentials)
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("%w: token contains whitespace", ErrInvalidCredentials)
	}
	return nil
}
