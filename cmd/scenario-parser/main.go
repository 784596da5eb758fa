package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tcg/scenario-sheets/internal/config"
	"github.com/tcg/scenario-sheets/internal/domain/scenario"
	"github.com/tcg/scenario-sheets/internal/platform/db"
	"github.com/tcg/scenario-sheets/internal/platform/export"
	"github.com/tcg/scenario-sheets/internal/platform/source"
	"github.com/tcg/scenario-sheets/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scenario-parser",
		Short:        "Turns scenario workbook sheets into game scenario files",
		SilenceUsage: true,
	}
	root.AddCommand(parseCmd())
	root.AddCommand(sheetsCmd())
	root.AddCommand(manifestCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// loadConfig reads configuration and lets explicitly set flags override it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("sheet", &cfg.Sheet)
	str("file", &cfg.SourceFile)
	str("url", &cfg.SourceURL)
	str("out", &cfg.OutputDir)
	str("format", &cfg.OutputFormat)
	str("description", &cfg.Description)
	str("store", &cfg.Store)
	str("port", &cfg.Port)
	if flags.Changed("strict-key-words") {
		cfg.StrictKeyWords, _ = flags.GetBool("strict-key-words")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

type parseOptions struct {
	download bool
	number   int
	persist  bool
}

func parseCmd() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract one sheet and write its scenario file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			path, err := runParse(cmd.Context(), cfg, opts, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().String("sheet", "", "Sheet (tab) name of the scenario to parse")
	cmd.Flags().String("file", "", "Workbook file to read (default from SOURCE_FILE)")
	cmd.Flags().String("url", "", "Workbook export URL used with --download")
	cmd.Flags().String("out", "", "Output directory (default from OUTPUT_DIR)")
	cmd.Flags().String("format", "", "Output format: json or yaml")
	cmd.Flags().String("description", "", "Manifest description")
	cmd.Flags().String("store", "", "Store backend used with --persist: postgres or sqlite")
	cmd.Flags().Bool("strict-key-words", false, "Treat an empty key words cell as an error")
	cmd.Flags().BoolVar(&opts.download, "download", false, "Download the latest workbook before parsing")
	cmd.Flags().IntVar(&opts.number, "number", 0, "Scenario number for Scenario<N> (default: taken from the sheet name)")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Also save the extraction run in the configured store")
	return cmd
}

// runParse downloads (optionally), extracts cfg.Sheet, writes the scenario
// file and refreshes the manifest. It returns the path written.
func runParse(ctx context.Context, cfg *config.Config, opts parseOptions, logger zerolog.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Sheet == "" {
		return "", fmt.Errorf("a sheet name is required (--sheet or SHEET)")
	}

	if opts.download {
		dctx := ctx
		if cfg.DownloadTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, cfg.DownloadTimeout)
			defer cancel()
		}
		logger.Info().Str("url", cfg.SourceURL).Str("file", cfg.SourceFile).Msg("downloading workbook")
		if err := source.Download(dctx, &http.Client{}, cfg.SourceURL, cfg.SourceFile); err != nil {
			return "", err
		}
	}

	wb, err := source.OpenFile(cfg.SourceFile)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	var repo scenario.Repository
	if opts.persist {
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return "", err
		}
		defer st.close()
		if st.repo == nil {
			return "", scenario.ErrNoStore
		}
		repo = st.repo
	}

	svc := scenario.NewService(repo, logger)
	svc.SetStrictKeyWords(cfg.StrictKeyWords)
	res, err := svc.Parse(ctx, wb, cfg.Sheet)
	if err != nil {
		return "", err
	}

	format, err := export.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return "", err
	}
	number := opts.number
	if number == 0 {
		number = sheetNumber(cfg.Sheet)
	}
	w := export.NewWriter(cfg.OutputDir, format)
	path, err := w.Write(res.Document, number)
	if err != nil {
		return "", err
	}
	m, err := w.Manifest(cfg.Description)
	if err != nil {
		return "", err
	}
	logger.Info().Str("path", path).Int("scenario_count", m.ScenarioCount).Msg("scenario written")

	if repo != nil {
		rec, err := svc.Store(ctx, res)
		if err != nil {
			return "", err
		}
		logger.Info().Str("id", rec.ID.String()).Msg("extraction stored")
	}
	return path, nil
}

var sheetNumberRe = regexp.MustCompile(`(?i)^scenario\s*(\d+)$`)

// sheetNumber returns N for sheets named like "Scenario N", else 0.
func sheetNumber(name string) int {
	m := sheetNumberRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List the sheet names in the workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			wb, err := source.OpenFile(cfg.SourceFile)
			if err != nil {
				return err
			}
			defer wb.Close()

			names, err := wb.Sheets(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sheet names in %s:\n", cfg.SourceFile)
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().String("file", "", "Workbook file to read (default from SOURCE_FILE)")
	return cmd
}

func manifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Rebuild " + export.ManifestFile + " from the scenario files in the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			m, err := export.NewWriter(cfg.OutputDir, export.FormatJSON).Manifest(cfg.Description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d scenario(s) listed in %s\n", m.ScenarioCount, export.ManifestFile)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output directory (default from OUTPUT_DIR)")
	cmd.Flags().String("description", "", "Manifest description")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scenario HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	cmd.Flags().String("port", "", "Listen port (default from PORT)")
	cmd.Flags().String("store", "", "Store backend: none, postgres or sqlite")
	cmd.Flags().Bool("strict-key-words", false, "Treat an empty key words cell as an error")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run Postgres migrations for the scenario store",
	}

	newMigrator := func(cmd *cobra.Command) (*db.Migrator, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required")
		}
		pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, migrations.FS, cfg.DBSchema), pool.Close, nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")
			m, closePool, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := m.UpTo(cmd.Context(), target)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().Int("to", 0, "Stop after this version (0 applies all)")
	cmd.AddCommand(upCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closePool, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatuses(cmd.OutOrStdout(), statuses)
			return nil
		},
	})
	return cmd
}

func printStatuses(out io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
