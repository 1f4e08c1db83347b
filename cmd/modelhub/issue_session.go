package main

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/modelhub/internal/auth"
	"github.com/MarcoPoloResearchLab/modelhub/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newIssueSessionCommand() *cobra.Command {
	var identity auth.SessionIdentity
	cmd := &cobra.Command{
		Use:   "issue-session",
		Short: "Mint a development session cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
				SigningSecret: []byte(appConfig.SessionSigningSecret),
				Issuer:        appConfig.SessionIssuer,
				CookieName:    appConfig.SessionCookieName,
				TokenTTL:      appConfig.SessionTTL,
			})
			if err != nil {
				return err
			}
			token, expiresAt, err := issuer.Issue(cmd.Context(), identity)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), issuer.Cookie(token, expiresAt).String())
			return err
		},
	}
	cmd.Flags().StringVar(&identity.UserID, "user-id", "", "User id carried by the session")
	cmd.Flags().StringVar(&identity.Email, "email", "", "User email")
	cmd.Flags().StringVar(&identity.DisplayName, "display-name", "", "User display name")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
