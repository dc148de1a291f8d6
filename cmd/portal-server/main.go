package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlastra-dana/PerfilabPortal/internal/config"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/catalog"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/sharetoken"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/db"
	"github.com/mlastra-dana/PerfilabPortal/internal/seed"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "Perfilab results portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(catalogCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closeFn, err := openMigrator(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			migrator, closeFn, err := openMigrator(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func openMigrator(ctx context.Context) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for migrations")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, db.Migrations()), pool.Close, nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect temporary access tokens",
	}

	validateCmd := &cobra.Command{
		Use:   "validate <token>",
		Short: "Check a token against the configured registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, _ := cmd.Flags().GetString("at")
			now := time.Now
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				now = func() time.Time { return t }
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ds, err := seed.Default()
			if err != nil {
				return err
			}
			registry, closeFn, err := openTokenRegistry(context.Background(), cfg, ds)
			if err != nil {
				return err
			}
			defer closeFn()

			res := sharetoken.NewValidator(registry, sharetoken.WithClock(now)).Validate(context.Background(), args[0])
			return printTokenResult(cmd, res)
		},
	}
	validateCmd.SilenceUsage = true
	validateCmd.Flags().String("at", "", "Evaluate at this RFC3339 instant instead of now")

	cmd.AddCommand(validateCmd)
	return cmd
}

// errTokenDenied makes token validate exit non-zero for denied tokens.
var errTokenDenied = errors.New("token denied")

func printTokenResult(cmd *cobra.Command, res sharetoken.Result) error {
	out := cmd.OutOrStdout()
	if res.Valid {
		fmt.Fprintf(out, "valid until %s\n", res.ExpiresAt.Format(time.RFC3339))
		return nil
	}
	fmt.Fprintln(out, res.Reason)
	return fmt.Errorf("%w: %s", errTokenDenied, res.Reason)
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the clinical catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "List catalog entries, or show one entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			return showCatalog(cmd, cat, args)
		},
	})
	return cmd
}

func showCatalog(cmd *cobra.Command, cat *catalog.Catalog, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		e, ok := cat.Entry(args[0])
		if !ok {
			return fmt.Errorf("catalog entry %q not found", args[0])
		}
		fmt.Fprintf(out, "ID:         %s\n", e.ID)
		fmt.Fprintf(out, "Name:       %s\n", e.DisplayName)
		fmt.Fprintf(out, "Category:   %s\n", e.Category)
		fmt.Fprintf(out, "Type:       %s\n", e.ResultType)
		fmt.Fprintf(out, "Unit:       %s\n", e.Unit)
		fmt.Fprintf(out, "Reference:  %s\n", e.ReferenceText())
		return nil
	}

	fmt.Fprintf(out, "%-12s %-32s %-12s %s\n", "ID", "NAME", "TYPE", "REFERENCE")
	for _, e := range cat.Entries() {
		fmt.Fprintf(out, "%-12s %-32s %-12s %s\n", e.ID, e.DisplayName, e.ResultType, e.ReferenceText())
	}
	return nil
}
