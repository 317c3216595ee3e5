/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/academic-portal/apiserver/internal/client"
	"github.com/spf13/cobra"
)

var (
	clientName     string
	clientEmail    string
	clientPassword string
	clientUserID   string
	clientOut      string
)

// clientCmd groups calls against a running server at API_URL.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Talk to a running portal server",
}

var clientRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account with the default courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		session, err := c.Register(cmd.Context(), clientName, clientEmail, clientPassword)
		if errors.Is(err, client.ErrEmailAlreadyExists) {
			return fmt.Errorf("%s is already registered", clientEmail)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, session)
	},
}

var clientSignInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and print the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		session, err := c.SignIn(cmd.Context(), clientEmail, clientPassword)
		if err != nil {
			return err
		}
		dash, err := c.Dashboard(cmd.Context(), session.Token)
		if err != nil {
			return err
		}
		return printJSON(cmd, dash)
	},
}

var clientCoursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List a user's courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		courses, err := c.ListCoursesByUser(cmd.Context(), clientUserID)
		if err != nil {
			return err
		}
		return printJSON(cmd, courses)
	},
}

var clientExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the server's export",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		snapshot, err := c.Export(cmd.Context())
		if err != nil {
			return err
		}
		return writeSnapshot(cmd.OutOrStdout(), clientOut, snapshot)
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientRegisterCmd, clientSignInCmd, clientCoursesCmd, clientExportCmd)

	clientRegisterCmd.Flags().StringVar(&clientName, "name", "", "full name")
	for _, c := range []*cobra.Command{clientRegisterCmd, clientSignInCmd} {
		c.Flags().StringVar(&clientEmail, "email", "", "account email")
		c.Flags().StringVar(&clientPassword, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	_ = clientRegisterCmd.MarkFlagRequired("name")

	clientCoursesCmd.Flags().StringVar(&clientUserID, "user", "", "user id")
	_ = clientCoursesCmd.MarkFlagRequired("user")
	clientExportCmd.Flags().StringVarP(&clientOut, "out", "o", "", "write to file instead of stdout")
}

func newAPIClient() (*client.Client, error) {
	cfg, _, err := loadRuntime()
	if err != nil {
		return nil, err
	}
	return client.NewFromConfig(cfg), nil
}

func printJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
