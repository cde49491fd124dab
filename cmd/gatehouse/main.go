package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatehouse/internal/config"
	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	"github.com/dropDatabas3/gatehouse/internal/store/core"
	"github.com/dropDatabas3/gatehouse/internal/store/memory"
	"github.com/dropDatabas3/gatehouse/internal/store/pg"
)

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func openStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return pg.New(ctx, cfg.Storage.DSN, pg.Options{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// explainSchemaErr traduce la taxonomía de errores de schema a un mensaje
// accionable para el operador. El branching es por tipo, nunca por string.
func explainSchemaErr(err error) string {
	var (
		uninit *core.UninitializedDatabaseError
		unrec  *core.UnrecognizedDatabaseError
		upg    *core.UpgradeNeededError
	)
	switch {
	case errors.As(err, &uninit):
		return "store is uninitialized: run `gatehouse init`"
	case errors.As(err, &upg):
		return fmt.Sprintf("store is at revision %s but this build requires %s: run `gatehouse migrate up`", upg.Current, upg.Required)
	case errors.As(err, &unrec):
		return "store revision state is not usable by this build; do not proceed without operator intervention"
	}
	return ""
}

func main() {
	// .env opcional, igual que el resto del tooling.
	_ = godotenv.Load()

	var (
		configPath = envOr("GATEHOUSE_CONFIG", "")
		timeout    = 30 * time.Second
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:          "gatehouse",
		Short:        "Admin del store de control de acceso (schema, roles, principals)",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = c
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "gatehouse"})
			return metrics.Register(nil)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Path al YAML de configuración (env GATEHOUSE_CONFIG)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "Timeout por operación contra el store")

	withStore := func(fn func(ctx context.Context, s core.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			return fn(ctx, s)
		}
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verifica que el schema esté en la revisión requerida",
		RunE: withStore(func(ctx context.Context, s core.Store) error {
			spec := core.DefaultRevisionSpec()
			if err := core.Check(ctx, s, spec); err != nil {
				if hint := explainSchemaErr(err); hint != "" {
					fmt.Fprintln(os.Stderr, hint)
				}
				return err
			}
			fmt.Printf("ok: revision %s\n", spec.Required)
			return nil
		}),
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Inicializa un store virgen (schema + roles built-in + stamp)",
		RunE: withStore(func(ctx context.Context, s core.Store) error {
			spec := core.DefaultRevisionSpec()
			rev, err := core.CurrentRevision(ctx, s, spec)
			if err != nil {
				return err
			}
			if rev != "" {
				return fmt.Errorf("store is already stamped at revision %s; init only runs on empty stores", rev)
			}
			if err := core.Initialize(ctx, s, spec); err != nil {
				return err
			}
			fmt.Printf("initialized at revision %s\n", spec.Required)
			return nil
		}),
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate [up|down] [steps]",
		Short: "Aplica la cadena de migraciones embebida (sólo driver postgres)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 && args[0] != "" {
				action = strings.ToLower(args[0])
			}
			if len(args) >= 2 {
				if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
					steps = n
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			pgStore, ok := s.(*pg.Store)
			if !ok {
				return fmt.Errorf("migrations require the postgres driver (got %q)", cfg.Storage.Driver)
			}
			switch action {
			case "up":
				return pgStore.MigrateUp(ctx, steps)
			case "down":
				return pgStore.MigrateDown(ctx, steps)
			default:
				return fmt.Errorf("unknown action %q. Use: up | down [steps]", action)
			}
		},
	}

	var provider, externalID string
	makeAdminCmd := &cobra.Command{
		Use:   "make-admin",
		Short: "Eleva una identidad a admin (idempotente, auto-provisiona)",
		RunE: withStore(func(ctx context.Context, s core.Store) error {
			if provider == "" || externalID == "" {
				return fmt.Errorf("--provider and --id are required")
			}
			if err := core.Check(ctx, s, core.DefaultRevisionSpec()); err != nil {
				if hint := explainSchemaErr(err); hint != "" {
					fmt.Fprintln(os.Stderr, hint)
				}
				return err
			}
			p, err := core.MakeAdminByIdentity(ctx, s, provider, externalID)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(p.Roles))
			for _, r := range p.Roles {
				names = append(names, r.Name)
			}
			fmt.Printf("principal %s roles=[%s]\n", p.ID, strings.Join(names, ", "))
			return nil
		}),
	}
	makeAdminCmd.Flags().StringVar(&provider, "provider", "", "Identity provider (ej: local, google)")
	makeAdminCmd.Flags().StringVar(&externalID, "id", "", "Subject id en el provider")

	var kindFlag string
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Borra registros expirados de un kind (apikeys | sessions)",
		RunE: withStore(func(ctx context.Context, s core.Store) error {
			var kind core.RecordKind
			switch strings.ToLower(kindFlag) {
			case "apikeys", "apikey":
				kind = core.KindAPIKey
			case "sessions", "session":
				kind = core.KindSession
			default:
				return fmt.Errorf("unknown kind %q (use apikeys | sessions)", kindFlag)
			}
			if _, err := core.PurgeExpired(ctx, s, kind); err != nil {
				return err
			}
			fmt.Printf("purged expired %s\n", kind)
			return nil
		}),
	}
	purgeCmd.Flags().StringVar(&kindFlag, "kind", "", "Record kind a purgar")

	roleCmd := &cobra.Command{
		Use:   "role <name>",
		Short: "Muestra un rol y sus scopes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			r, err := s.FindRole(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n  scopes: %s\n", r.Name, r.Description, strings.Join(r.Scopes, ", "))
			return nil
		},
	}

	root.AddCommand(checkCmd, initCmd, migrateCmd, makeAdminCmd, purgeCmd, roleCmd)

	if err := root.Execute(); err != nil {
		logger.Named("cli").Error("command failed", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
