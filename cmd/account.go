/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gamehub/apiserver/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session for play",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := openSession(cmd)
		if err != nil {
			return err
		}

		password := loginPassword
		if password == "" {
			password = os.Getenv("GAMEHUB_PASSWORD")
		}
		if password == "" {
			password, err = promptPassword(cmd)
			if err != nil {
				return err
			}
		}

		user, err := session.Login(cmd.Context(), loginEmail, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := openSession(cmd)
		if err != nil {
			return err
		}
		if err := session.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and their stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := openSession(cmd)
		if err != nil {
			return err
		}
		user, ok := session.User()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)
		fmt.Fprintf(out, "played %d  won %d  lost %d  drawn %d\n",
			user.GameStats.TotalPlayed, user.GameStats.Wins, user.GameStats.Losses, user.GameStats.Draws)
		for game, score := range user.HighScores {
			fmt.Fprintf(out, "high score %s: %d\n", game, score)
		}
		for game, moves := range user.BestMoves {
			fmt.Fprintf(out, "best moves %s: %d\n", game, moves)
		}
		if len(user.FavoriteGames) > 0 {
			fmt.Fprintf(out, "favorites: %s\n", strings.Join(user.FavoriteGames, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (or GAMEHUB_PASSWORD, or prompt)")
	_ = loginCmd.MarkFlagRequired("email")
}

// promptPassword reads the password without echo when stdin is a terminal
// and falls back to a single line for piped input.
func promptPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Password: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		if len(raw) == 0 {
			return "", errors.New("password is required")
		}
		return string(raw), nil
	}
	return readPasswordLine(cmd.InOrStdin())
}

// readPasswordLine returns the first line of r with only the line ending
// removed.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

// openSession restores the stored session for the configured API.
func openSession(cmd *cobra.Command) (*client.Session, *client.Client, error) {
	path := tokenFile
	if path == "" {
		var err error
		path, err = client.DefaultTokenPath()
		if err != nil {
			return nil, nil, err
		}
	}

	c := client.New(apiURL, nil)
	session := client.NewSession(c, client.NewFileTokenStore(path), nil)
	if err := session.Init(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}
	return session, c, nil
}
