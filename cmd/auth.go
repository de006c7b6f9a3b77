package main

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qbz/internal/ui"
)

// Login authenticates against the provider and reports the account identity.
//
// A plaintext --password is hashed before leaving the process; the config
// file only ever stores the MD5 hash the API expects.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	if email := cmd.String("email"); email != "" {
		r.config.Qobuz.Email = email
	}
	if password := cmd.String("password"); password != "" {
		r.config.Qobuz.PasswordHash = fmt.Sprintf("%x", md5.Sum([]byte(password)))
	}

	client, err := r.provider(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	r.writePlainln("%s", ui.OK("✓ Logged in"))
	r.writePlainln("User ID: %d", client.UserID())
	r.writePlainln("Credential ID: %d", client.CredentialID())
	r.writePlainln("Membership: %s", client.MembershipLabel())

	if cmd.Bool("check-secrets") {
		if err := client.SelectSecret(ctx); err != nil {
			r.writePlainln("%s", ui.Err("✗ No configured app secret validated"))
			return err
		}
		r.writePlainln("%s", ui.OK("✓ App secret validated"))
	}

	return nil
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with Qobuz and verify the account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "Account email (overrides config)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "Account password (hashed before use, overrides config)",
			},
			&cli.BoolFlag{
				Name:  "check-secrets",
				Usage: "Also validate the configured app secrets",
			},
		},
		Action: r.Login,
	}
}
