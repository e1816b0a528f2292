package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Freeeeeet/musicschool/internal/controller/api"
	"github.com/Freeeeeet/musicschool/internal/model"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var userFlag string
	var roleFlag string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireJWT(); err != nil {
				return err
			}

			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user must be a uuid: %w", err)
			}
			role := model.Role(roleFlag)
			switch role {
			case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
			default:
				return fmt.Errorf("--role must be student, teacher or admin, got %q", roleFlag)
			}

			token, err := api.IssueToken(cfg.JWTSecret, userID, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "User id (uuid)")
	cmd.Flags().StringVar(&roleFlag, "role", string(model.RoleStudent), "Role embedded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
