package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wbscraper/pkg/auth"
	"wbscraper/pkg/ui"
)

var (
	authProfile string
	showGuide   bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored Weibo cookie",
	Long: `Store or remove the Weibo cookie in the system keychain.

The cookie is used as-is. When none is configured, WBSCRAPER_COOKIE is read instead.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save a cookie to the keychain",
	Args:  cobra.NoArgs,
	RunE:  runAuthSet,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.NewManager().Delete(authProfile); err != nil {
			return err
		}
		ui.PrintSuccess("Cookie removed for profile " + authProfile)
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the cookie would be loaded from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, source, err := auth.NewManager().Resolve(authProfile)
		if err != nil {
			return err
		}
		ui.PrintInfo("Profile", cred.Profile)
		ui.PrintInfo("Source", source)
		ui.PrintInfo("Cookie", auth.MaskCookie(cred.Cookie))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authStatusCmd)

	authCmd.PersistentFlags().StringVar(&authProfile, "profile", "default", "keychain profile name")
	authSetCmd.Flags().BoolVar(&showGuide, "guide", false, "print how to copy the cookie from a browser first")
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	if showGuide {
		auth.WriteCookieGuide(os.Stdout)
	}

	fmt.Print("Cookie: ")
	value, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read cookie: %w", err)
	}

	if err := auth.NewManager().Store(&auth.Credential{Profile: authProfile, Cookie: value}); err != nil {
		return err
	}
	ui.PrintSuccess("Cookie saved for profile " + authProfile + " (" + auth.MaskCookie(strings.TrimSpace(value)) + ")")
	return nil
}

// readSecret reads a line from stdin without echo when stdin is a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(secret), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
