package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/exotrack/exotrack-console/internal/domain"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with document number and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		doc, _ := cmd.Flags().GetString("document")
		password, _ := cmd.Flags().GetString("password")
		if doc == "" {
			doc = prompt("Document number: ")
		}
		if password == "" {
			password = prompt("Password: ")
		}

		result, err := a.auth.Login(cmd.Context(), domain.Credentials{
			DocumentNumber: doc,
			Password:       password,
		})
		if err != nil {
			return err
		}
		if err := a.session.Login(result.User, result.Token); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (%s)\n", result.User.FullName, result.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.session.Initialize(cmd.Context()); err != nil {
			return err
		}
		if !a.session.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return nil
		}

		_ = a.auth.Logout(cmd.Context())
		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.session.Initialize(cmd.Context()); err != nil {
			return err
		}
		user := a.session.User()
		if !a.session.IsAuthenticated() || user == nil {
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Printf("%s <%s>\ndocument: %s\nrole: %s\n",
			user.FullName, user.Email, user.DocumentNumber, user.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new customer account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		req := domain.RegisterRequest{}
		req.FullName, _ = cmd.Flags().GetString("full-name")
		req.DocumentNumber, _ = cmd.Flags().GetString("document")
		req.Email, _ = cmd.Flags().GetString("email")
		req.PhoneNumber, _ = cmd.Flags().GetString("phone")
		req.Password, _ = cmd.Flags().GetString("password")

		user, err := a.auth.Register(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s (%s). Run 'exotrack login' to start a session.\n",
			user.FullName, user.DocumentNumber)
		return nil
	},
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func init() {
	loginCmd.Flags().String("document", "", "document number")
	loginCmd.Flags().String("password", "", "password")

	registerCmd.Flags().String("full-name", "", "full name")
	registerCmd.Flags().String("document", "", "document number")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().String("phone", "", "phone number")
	registerCmd.Flags().String("password", "", "password")
	_ = registerCmd.MarkFlagRequired("full-name")
	_ = registerCmd.MarkFlagRequired("document")
	_ = registerCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}
