package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCommand(a), newUserDeleteCommand(a))
	return cmd
}

// accounts builds an account service without tokens or sessions; the
// admin commands never log anyone in.
func (a *app) accounts() *services.AccountService {
	return services.NewAccountService(a.store, nil, nil, nil, services.AccountConfig{
		BaseURL:         a.cfg.BaseURL,
		DefaultCurrency: a.cfg.DefaultCurrency,
	}, a.logger)
}

func newUserAddCommand(a *app) *cobra.Command {
	var form auth.RegistrationForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Password == "" {
				pw, err := readPassword(a.in, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				form.Password = pw
			}
			form.Normalize()
			if errs := form.Validate(); errs.Any() {
				return formError(errs)
			}

			user, err := a.accounts().CreateUser(cmd.Context(), core.User{
				Username: form.Username,
				Email:    form.Email,
				Active:   true,
			}, form.Password)
			if errors.Is(err, core.ErrDuplicate) {
				return fmt.Errorf("username %q is already taken", form.Username)
			}
			if err != nil {
				return err
			}
			a.logger.Info("User created", log.FieldUserID, user.ID, log.FieldUsername, user.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d %s\n", user.ID, user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Username, "username", "", "login name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "password; prompted for when omitted")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a user and all of their records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.accounts().DeleteUser(cmd.Context(), args[0])
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and falls back to a
// plain line read otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("read password: no input")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}

func formError(errs auth.FormErrors) error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+errs[f])
	}
	return errors.New(strings.Join(msgs, "; "))
}
