package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

// errLastAdmin stops an operator from locking everyone out of the CMS.
var errLastAdmin = errors.New("refusing to disable the last active admin")

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage CMS operator accounts",
		Long: `Passwords are read from standard input, one line, so they stay out of
shell history:

	echo "$NEW_PASSWORD" | contentctl users add ada --name "Ada Lovelace" --role editor`,
	}
	cmd.AddCommand(c.usersListCmd(), c.usersAddCmd(), c.usersPasswdCmd(),
		c.usersStatusCmd("disable", models.StatusDisabled),
		c.usersStatusCmd("enable", models.StatusActive))
	return cmd
}

// withUsers connects and hands the user store to fn.
func (c *cli) withUsers(cmd *cobra.Command, fn func(ctx context.Context, users *userstore.Store) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	db, closeDB, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(ctx, userstore.New(db))
}

func (c *cli) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withUsers(cmd, func(ctx context.Context, users *userstore.Store) error {
				list, err := users.ListAll(ctx)
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), list)
			})
		},
	}
}

func printUsers(w io.Writer, list []models.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOGIN ID\tNAME\tROLE\tSTATUS\tAUTH")
	for _, u := range list {
		login := ""
		if u.LoginID != nil {
			login = *u.LoginID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", login, u.FullName, u.Role, u.Status, u.AuthMethod)
	}
	return tw.Flush()
}

func (c *cli) usersAddCmd() *cobra.Command {
	var name, role string
	cmd := &cobra.Command{
		Use:   "add LOGIN_ID",
		Short: "Create a password account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.withUsers(cmd, func(ctx context.Context, users *userstore.Store) error {
				u, err := addUser(ctx, users, args[0], name, role, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", *u.LoginID, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (default: the login ID)")
	cmd.Flags().StringVar(&role, "role", models.RoleEditor, "admin or editor")
	return cmd
}

func addUser(ctx context.Context, users *userstore.Store, loginID, name, role, password string) (models.User, error) {
	loginID = normalize.LoginID(loginID)
	if loginID == "" {
		return models.User{}, errors.New("login ID is required")
	}
	if !models.IsValidRole(normalize.Role(role)) {
		return models.User{}, fmt.Errorf("role must be %s or %s", models.RoleAdmin, models.RoleEditor)
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if name == "" {
		name = loginID
	}
	return users.Create(ctx, models.User{
		FullName:     name,
		LoginID:      &loginID,
		AuthMethod:   models.AuthPassword,
		PasswordHash: &hash,
		Role:         role,
	})
}

func (c *cli) usersPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd LOGIN_ID",
		Short: "Set a new password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.withUsers(cmd, func(ctx context.Context, users *userstore.Store) error {
				if err := setPassword(ctx, users, args[0], password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", normalize.LoginID(args[0]))
				return nil
			})
		},
	}
}

func setPassword(ctx context.Context, users *userstore.Store, loginID, password string) error {
	if err := authutil.ValidatePassword(password); err != nil {
		return err
	}
	u, err := lookup(ctx, users, loginID)
	if err != nil {
		return err
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	return users.UpdatePassword(ctx, u.ID, hash)
}

func (c *cli) usersStatusCmd(verb, status string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " LOGIN_ID",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withUsers(cmd, func(ctx context.Context, users *userstore.Store) error {
				if err := setStatus(ctx, users, args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", normalize.LoginID(args[0]), status)
				return nil
			})
		},
	}
}

func setStatus(ctx context.Context, users *userstore.Store, loginID, status string) error {
	u, err := lookup(ctx, users, loginID)
	if err != nil {
		return err
	}
	if status == models.StatusDisabled && u.Role == models.RoleAdmin && u.IsActive() {
		n, err := users.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return errLastAdmin
		}
	}
	return users.SetStatus(ctx, u.ID, status)
}

func lookup(ctx context.Context, users *userstore.Store, loginID string) (*models.User, error) {
	u, err := users.GetByLoginID(ctx, loginID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("no user with login ID %q", normalize.LoginID(loginID))
	}
	return u, err
}

// readPassword takes the first line of r.
func readPassword(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("password expected on standard input")
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}
