package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adbmx/crm/pkg/crmclient"
)

const defaultServer = "http://localhost:5000"

type options struct {
	server      string
	sessionFile string
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Command line client for the AdBMX CRM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("ADBMX_API_URL")
	if server == "" {
		server = defaultServer
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "API base URL (env ADBMX_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", "", "Session file (default: user config dir)")

	cmd.AddCommand(loginCmd(opts), logoutCmd(opts), whoamiCmd(opts), statusCmd(opts))
	return cmd
}

func (o *options) session() (*crmclient.Session, error) {
	path := o.sessionFile
	if path == "" {
		p, err := crmclient.DefaultFilePath()
		if err != nil {
			return nil, fmt.Errorf("resolve session file: %w", err)
		}
		path = p
	}
	return crmclient.New(o.server, crmclient.NewFileStorage(path)), nil
}

func loginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADBMX_PASSWORD")
			}
			s, err := opts.session()
			if err != nil {
				return err
			}
			user, err := s.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada como %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (env ADBMX_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			if err := s.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}

func whoamiCmd(opts *options) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			if !s.Restore() {
				return errors.New("no hay sesión activa, ejecuta crmctl login")
			}

			var user crmclient.User
			if offline {
				user, _ = s.User()
			} else {
				u, err := s.Verify(cmd.Context())
				if errors.Is(err, crmclient.ErrSessionExpired) {
					return errors.New("la sesión expiró, ejecuta crmctl login")
				}
				if err != nil {
					return err
				}
				user = *u
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> rol=%s activo=%t\n", user.Name, user.Email, user.Role, user.Active)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Print the stored profile without contacting the server")
	return cmd
}

func statusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			st, err := s.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", st.Status, st.Message, st.Timestamp)
			return nil
		},
	}
}
