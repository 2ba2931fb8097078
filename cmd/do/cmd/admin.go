package cmd

import (
	"fmt"
	"strconv"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"github.com/spf13/cobra"
)

func SessionsCmd() *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}

	sessions.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			store := repository.NewStorage(conn)
			svc := service.NewSessionService(store.Sessions, store.Users, cfg.SessionTTL, cfg.IsProduction())
			n, err := svc.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", n)
			return nil
		},
	})

	sessions.AddCommand(&cobra.Command{
		Use:   "revoke <email>",
		Short: "Log a user out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			store := repository.NewStorage(conn)
			user, err := findUser(cmd, store, args[0])
			if err != nil {
				return err
			}
			svc := service.NewSessionService(store.Sessions, store.Users, cfg.SessionTTL, cfg.IsProduction())
			return svc.DestroyAll(cmd.Context(), user.ID)
		},
	})

	return sessions
}

func UsersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	users.AddCommand(&cobra.Command{
		Use:   "role <email> <user|chef|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := args[1]
			if role != model.RoleUser && role != model.RoleChef && role != model.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}

			_, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			store := repository.NewStorage(conn)
			user, err := findUser(cmd, store, args[0])
			if err != nil {
				return err
			}
			_, err = store.Users.Update(cmd.Context(), user.ID, model.UserUpdate{Role: &role})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, role)
			return nil
		},
	})

	return users
}

func ChefsCmd() *cobra.Command {
	chefs := &cobra.Command{
		Use:   "chefs",
		Short: "Moderate chef profiles",
	}

	var revoke bool
	approve := &cobra.Command{
		Use:   "approve <chef-id>",
		Short: "Approve a chef profile for public listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chef id %q", args[0])
			}

			_, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			store := repository.NewStorage(conn)
			approved := !revoke
			chef, err := store.Chefs.Update(cmd.Context(), id, model.ChefUpdate{IsApproved: &approved})
			if err != nil {
				return err
			}
			if chef == nil {
				return fmt.Errorf("chef %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chef %d approved=%t\n", chef.ID, chef.IsApproved)
			return nil
		},
	}
	approve.Flags().BoolVar(&revoke, "revoke", false, "withdraw approval instead")
	chefs.AddCommand(approve)

	return chefs
}

func findUser(cmd *cobra.Command, store *repository.Storage, email string) (*model.User, error) {
	user, err := store.Users.ByEmail(cmd.Context(), auth.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	return user, nil
}
