package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobportal/backend/internal/cache"
	"jobportal/backend/internal/config"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "jobboardctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "jobboardctl",
		Short:        "Job portal maintenance CLI",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newUserCmd(),
	)
	return cmd
}

type session struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// open connects to the configured database. InitDatabase migrates the schema.
func open() (*session, error) {
	cfg := config.Load()
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, db: db}, nil
}

func (r *session) close() {
	if sqlDB, err := r.db.DB(); err == nil {
		sqlDB.Close()
	}
	r.logger.Sync()
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open()
			if err != nil {
				return err
			}
			defer rt.close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", rt.cfg.Database.Driver)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default categories, types, locations and location types",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open()
			if err != nil {
				return err
			}
			defer rt.close()

			var c cache.Cache = cache.NewMemory()
			if rt.cfg.Redis.Addr != "" {
				c = cache.NewRedis(rt.cfg.Redis.Addr, rt.cfg.Redis.Password, rt.cfg.Redis.DB)
			}
			defer c.Close()

			meta := services.NewMetaService(repositories.NewStore(rt.db), c, rt.cfg.Redis.CacheTTL, rt.logger)
			created, err := meta.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries\n", created)
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var in services.NewUser
	var company string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employer or candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open()
			if err != nil {
				return err
			}
			defer rt.close()

			if company != "" {
				in.CompanyName = &company
			}
			user, err := services.NewUserService(repositories.NewStore(rt.db)).Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %d <%s>\n", user.Role, user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Role, "role", "", "employer or candidate")
	cmd.Flags().StringVar(&company, "company", "", "Company name (employers only)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("role")
	return cmd
}
