package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"devmatch/backend/internal/auth"
	"devmatch/backend/internal/config"
	"devmatch/backend/internal/match"
	"devmatch/backend/internal/models"
	"devmatch/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const dayLayout = "2006-01-02"

var cfgFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devmatch-admin",
		Short: "Operator commands for the DevMatch backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().String("database-driver", defaults.GetString("database.driver"), "Database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("database-dsn", defaults.GetString("database.dsn"), "Database DSN or SQLite path")
	rootCmd.PersistentFlags().String("signing-secret", "", "JWT signing secret (overrides env)")
	bindFlag(rootCmd, "database.driver", "database-driver")
	bindFlag(rootCmd, "database.dsn", "database-dsn")
	bindFlag(rootCmd, "auth.signing_secret", "signing-secret")

	rootCmd.AddCommand(newIssueTokenCommand(), newPendingDigestCommand(), newSeedProfilesCommand())
	return rootCmd
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	_ = godotenv.Load()

	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

func openStorage() (*storage.Service, func(), error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.OpenDatabase(appConfig.DatabaseDriver, appConfig.DatabaseDSN, nil)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return storage.NewStorageService(db, zap.NewNop()), closeFn, nil
}

func newIssueTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <user_id>",
		Short: "Mint an API token for a user (development only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			manager, err := auth.NewTokenManager(auth.TokenManagerConfig{
				SigningSecret: []byte(appConfig.SigningSecret),
				Issuer:        appConfig.TokenIssuer,
				TokenTTL:      appConfig.TokenTTL,
			})
			if err != nil {
				return err
			}
			token, expiresAt, err := manager.Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires_at: %s\n", token, expiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newPendingDigestCommand() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "pending-digest",
		Short: "Print unreviewed interest requests created on a UTC day, grouped by recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := dayWindow(day, time.Now())
			if err != nil {
				return err
			}

			store, closeFn, err := openStorage()
			if err != nil {
				return err
			}
			defer closeFn()

			engine := match.NewEngine(store, store, store.Logger)
			digests, err := engine.PendingDigest(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return writeDigest(cmd.OutOrStdout(), from, digests)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "UTC day as YYYY-MM-DD (default yesterday)")
	return cmd
}

// dayWindow returns [day 00:00, next day 00:00) in UTC. An empty day means
// the day before now.
func dayWindow(day string, now time.Time) (time.Time, time.Time, error) {
	var from time.Time
	if day == "" {
		y, m, d := now.UTC().AddDate(0, 0, -1).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.ParseInLocation(dayLayout, day, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --day %q: %w", day, err)
		}
		from = parsed
	}
	return from, from.AddDate(0, 0, 1), nil
}

type digestReport struct {
	Day        string                 `yaml:"day"`
	Recipients []models.PendingDigest `yaml:"recipients"`
}

func writeDigest(w io.Writer, day time.Time, digests []models.PendingDigest) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(digestReport{Day: day.Format(dayLayout), Recipients: digests}); err != nil {
		return err
	}
	return encoder.Close()
}

type seedFile struct {
	Profiles []models.Profile `yaml:"profiles"`
}

func newSeedProfilesCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-profiles",
		Short: "Load directory profiles from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			profiles, err := parseSeedFile(raw)
			if err != nil {
				return err
			}

			store, closeFn, err := openStorage()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := seedProfiles(cmd.Context(), store, profiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profiles\n", len(profiles))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "profiles.yaml", "YAML file with a top-level profiles list")
	return cmd
}

func parseSeedFile(raw []byte) ([]models.Profile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, profile := range seed.Profiles {
		if profile.UserID == "" {
			return nil, fmt.Errorf("profile %d has no user_id", i)
		}
	}
	return seed.Profiles, nil
}

func seedProfiles(ctx context.Context, directory storage.Directory, profiles []models.Profile) error {
	for i := range profiles {
		if err := directory.SaveProfile(ctx, &profiles[i]); err != nil {
			return err
		}
	}
	return nil
}
