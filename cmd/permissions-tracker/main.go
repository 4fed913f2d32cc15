package main

import (
	"fmt"
	"os"

	"github.com/m2ndl/permissions-tracker/internal/config"
	"github.com/m2ndl/permissions-tracker/internal/daemon"
	"github.com/m2ndl/permissions-tracker/internal/hijri"
	"github.com/m2ndl/permissions-tracker/internal/monthrange"
	"github.com/m2ndl/permissions-tracker/internal/permits"
	"github.com/m2ndl/permissions-tracker/internal/storage"
	"github.com/m2ndl/permissions-tracker/pkg/dateutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "permissions-tracker",
		Short: "Hijri Permissions Tracker",
		Long:  "Track a monthly quota of workplace permissions (late-arrival / early-departure passes) against the Hijri calendar",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Daemon.LogFile != "" {
				logger, err = initFileLogger(cfg.Daemon.LogFile, cfg.Daemon.LogLevel)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger() // Default console logger
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(useCmd())
	rootCmd.AddCommand(undoCmd())
	rootCmd.AddCommand(monthCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show remaining permissions for the current Hijri month",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeFn, err := initializeManager()
			if err != nil {
				return err
			}
			defer closeFn()

			status, err := manager.Status(dateutil.Today())
			if err != nil {
				return fmt.Errorf("unable to determine current month: %w", err)
			}

			printStatus(status)
			return nil
		},
	}
}

func useCmd() *cobra.Command {
	var kindStr string
	var minutes int
	var note string
	var dateStr string

	cmd := &cobra.Command{
		Use:   "use",
		Short: "Record a permission against this month's quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := permits.ParseKind(kindStr)
			if err != nil {
				return err
			}

			date := dateutil.Today()
			if dateStr != "" {
				date, err = dateutil.ParseDate(dateStr)
				if err != nil {
					return err
				}
			}

			manager, closeFn, err := initializeManager()
			if err != nil {
				return err
			}
			defer closeFn()

			entry, err := manager.Use(date, kind, minutes, note)
			if err != nil {
				return err
			}

			fmt.Printf("✅ Recorded %s of %d minutes on %s\n", entry.Kind, entry.Minutes, entry.Date)

			status, err := manager.Status(date)
			if err == nil {
				fmt.Printf("   %d of %d permissions remaining in %s %d AH\n",
					status.Remaining, status.Allowance,
					status.Range.MonthName, status.Range.HijriYear)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindStr, "kind", string(permits.KindLateArrival), "Permission kind: late_arrival or early_departure")
	cmd.Flags().IntVar(&minutes, "minutes", 60, "Length of the permission in minutes")
	cmd.Flags().StringVar(&note, "note", "", "Optional note")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date of the permission (YYYY-MM-DD, default today)")

	return cmd
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Remove the most recent permission entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeFn, err := initializeManager()
			if err != nil {
				return err
			}
			defer closeFn()

			entry, err := manager.Undo(dateutil.Today())
			if err != nil {
				return err
			}

			fmt.Printf("↩️  Removed %s of %d minutes on %s\n", entry.Kind, entry.Minutes, entry.Date)
			return nil
		},
	}
}

func monthCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the Gregorian bounds of the current Hijri month",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dateutil.Today()
			if dateStr != "" {
				var err error
				date, err = dateutil.ParseDate(dateStr)
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			weekend, err := monthrange.ParseWeekend(cfg.Quota.WeekendDays)
			if err != nil {
				return err
			}

			resolver := monthrange.NewResolver(buildConverter(cfg), logger)

			monthRange, err := resolver.ResolveCurrentMonth(date, weekend)
			if err != nil {
				return fmt.Errorf("unable to determine current month: %w", err)
			}

			fmt.Printf("🌙 %s %d AH (month %d)\n", monthRange.MonthName, monthRange.HijriYear, monthRange.HijriMonth)
			fmt.Printf("   Start:    %s\n", dateutil.FormatDate(monthRange.Start))
			fmt.Printf("   End:      %s\n", dateutil.FormatDate(monthRange.End))
			fmt.Printf("   Days:     %d\n", monthRange.TotalDays())
			fmt.Printf("   Workdays: %d (weekend: %s)\n", monthRange.Workdays, weekend)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Reference date (YYYY-MM-DD, default today)")

	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived months and their usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeFn, err := initializeManager()
			if err != nil {
				return err
			}
			defer closeFn()

			months, err := manager.History(limit)
			if err != nil {
				return err
			}

			if len(months) == 0 {
				fmt.Println("No archived months yet")
				return nil
			}

			fmt.Println("  Month                    | Range                    | Workdays | Used")
			fmt.Println("---------------------------+--------------------------+----------+------")
			for _, m := range months {
				fmt.Printf("  %-24s | %s .. %s | %8d | %d/%d\n",
					fmt.Sprintf("%s %d AH", m.MonthName, m.HijriYear),
					m.StartDate, m.EndDate, m.Workdays, m.Used, m.Allowance)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 12, "Maximum number of months to show")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the daily rollover check in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			manager, closeFn, err := initializeManagerWithConfig(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			hour, minute := cfg.Daemon.GetDailyTime()
			d := daemon.NewDaemon(manager, hour, minute, cfg.Daemon.SystemTray, logger)
			return d.Start()
		},
	}
}

func printStatus(status *permits.Status) {
	fmt.Printf("🌙 %s %d AH\n", status.Range.MonthName, status.Range.HijriYear)
	fmt.Printf("   %s .. %s (%d days, %d workdays)\n",
		dateutil.FormatDate(status.Range.Start),
		dateutil.FormatDate(status.Range.End),
		status.Range.TotalDays(),
		status.Range.Workdays)
	fmt.Printf("   Permissions: %d used, %d remaining of %d\n",
		status.Used, status.Remaining, status.Allowance)

	if len(status.Entries) > 0 {
		fmt.Println("\n   Date       | Kind            | Minutes | Note")
		fmt.Println("   -----------+-----------------+---------+------")
		for _, e := range status.Entries {
			fmt.Printf("   %s | %-15s | %7d | %s\n", e.Date, e.Kind, e.Minutes, e.Note)
		}
	}
}

func initializeManager() (*permits.Manager, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return initializeManagerWithConfig(cfg)
}

func initializeManagerWithConfig(cfg *config.Config) (*permits.Manager, func(), error) {
	weekend, err := monthrange.ParseWeekend(cfg.Quota.WeekendDays)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid weekend config: %w", err)
	}

	resolver := monthrange.NewResolver(buildConverter(cfg), logger)

	state := permits.NewStateManager(cfg.State.MonthStateFile, logger)
	if err := state.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load month state: %w", err)
	}

	archive, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	manager := permits.NewManager(cfg, resolver, state, archive, weekend, logger)

	closeFn := func() {
		if err := archive.Close(); err != nil {
			logger.Warn("Failed to close archive database", zap.Error(err))
		}
	}

	return manager, closeFn, nil
}

// buildConverter builds the Hijri conversion oracle based on config
func buildConverter(cfg *config.Config) hijri.Converter {
	switch cfg.Calendar.Type {
	case "aladhan":
		logger.Info("Using aladhan.com conversion API")
		return hijri.NewAladhanConverter(cfg.Calendar.APIURL, cfg.Calendar.GetCacheTTL(), logger)

	case "composite":
		logger.Info("Using aladhan.com API with bundled table fallback")
		primary := hijri.NewAladhanConverter(cfg.Calendar.APIURL, cfg.Calendar.GetCacheTTL(), logger)
		fallback := hijri.NewUmmAlQuraConverter()
		return hijri.NewCompositeConverter(primary, fallback, logger)

	default:
		logger.Info("Using bundled Umm al-Qura tables")
		return hijri.NewUmmAlQuraConverter()
	}
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
