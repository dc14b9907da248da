package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rmnotify/internal/app"
	"rmnotify/internal/config"
	"rmnotify/internal/session"
)

var loginProvider string

var loginCmd = &cobra.Command{
	Use:     "login <id-token|->",
	Short:   "Store the identity token issued at sign-in",
	GroupID: "account",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok := args[0]
		if tok == "-" {
			raw, err := readInput("-")
			if err != nil {
				return err
			}
			tok = string(raw)
		}
		tok = strings.TrimSpace(tok)
		provider := session.ParseProvider(loginProvider)
		u, err := session.DecodeUserInfo(tok, provider)
		if err != nil {
			return err
		}
		if err := u.RequireUserID(); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ts, err := openSessions(cfg)
		if err != nil {
			return err
		}
		if err := ts.SaveIDToken(tok); err != nil {
			return err
		}
		if err := ts.SaveProvider(provider); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s.\n", displayUser(u))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Clear the session and every local cache",
	GroupID: "account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLocal(func(l *app.Local, cfg *config.Config) error {
			l.Store.CleanupAll(context.Background())
			ts, err := openSessions(cfg)
			if err != nil {
				return err
			}
			if err := ts.Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out; local data cleared.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the signed-in user",
	GroupID: "account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ts, err := openSessions(cfg)
		if err != nil {
			return err
		}
		u, err := ts.Current(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(u)
		}
		if !u.SignedIn() {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("%s\nuser id:  %s\nprovider: %s\n", displayUser(u), u.UserID, u.Provider)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginProvider, "provider", string(session.ProviderCognito), "sign-in provider (cognito or other)")
}

func displayUser(u session.UserInfo) string {
	switch {
	case u.Email != "" && u.Username != "":
		return fmt.Sprintf("%s <%s>", u.Username, u.Email)
	case u.Email != "":
		return u.Email
	case u.Username != "":
		return u.Username
	default:
		return "unknown user"
	}
}
