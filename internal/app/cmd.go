package app

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandFilter はJSONファイルのレコードをオフラインで絞り込むことを示す。
	CommandFilter Command = "filter"
)

// newRootCmd はサブコマンドを登録したルートコマンドを返す。
// サブコマンドを省略した場合はserveとして起動する。
func newRootCmd(w io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "dataregistry",
		Short: "Open data collection catalog API",
		Long: `dataregistry serves the searchable catalog of published data collections.

Without a subcommand it starts the API server (same as "dataregistry serve").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(w)
		},
	}
	root.SetOut(w)
	root.SetErr(w)

	root.AddCommand(
		newServeCmd(w),
		newWorkerCmd(w),
		newMigrateCmd(w),
		newHealthcheckCmd(),
		newFilterCmd(w),
	)
	return root
}

func serve(w io.Writer) error {
	cfg, err := Init(w)
	if err != nil {
		return err
	}
	return runServe(cfg)
}

func newServeCmd(w io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   string(CommandServe),
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(w)
		},
	}
}

func newWorkerCmd(w io.Writer) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   string(CommandWorker),
		Short: "Run background jobs (expired criteria session cleanup)",
		Long: `Worker deletes criteria sessions whose expiry is older than
SESSION_RETENTION_DAYS. It runs once at start and then on every interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runWorker(cfg, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 24*time.Hour, "Cleanup interval")
	return cmd
}

func newMigrateCmd(w io.Writer) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   string(CommandMigrate) + " [up|down|version]",
		Short: "Apply, roll back or inspect database migrations",
		Example: `  # Apply all pending migrations
  dataregistry migrate

  # Roll back the latest migration
  dataregistry migrate down --steps 1`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runMigrate(cmd.OutOrStdout(), cfg, direction, steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (down only)")
	return cmd
}

// newHealthcheckCmd は軽量サブコマンドのため、設定の読み込みをスキップする。
func newHealthcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   string(CommandHealthcheck),
		Short: "Check the /health endpoint of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := os.Getenv("SERVER_PORT")
			if port == "" {
				port = "8080"
			}
			return runHealthcheck(port)
		},
	}
}

func newFilterCmd(w io.Writer) *cobra.Command {
	opts := filterOptions{}

	cmd := &cobra.Command{
		Use:   string(CommandFilter) + " FILE",
		Short: "Filter a JSON collection snapshot offline",
		Long: `Filter applies search criteria to a JSON file of collections (the upstream
API shape) and prints the matching records with their date overlap.
Use "-" as FILE to read from standard input.`,
		Example: `  dataregistry filter collections.json --country ken --facet tenders,awards
  dataregistry filter collections.json --date custom --from 2020-01-01 --to 2020-12-31 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return runFilter(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.country, "country", "", "Country name prefix (case-insensitive)")
	flags.StringSliceVar(&opts.frequencies, "frequency", nil, "Update frequencies (e.g. MONTHLY)")
	flags.StringSliceVar(&opts.regions, "region", nil, "Regions (e.g. LAC)")
	flags.StringSliceVar(&opts.facets, "facet", nil, "Required data facets (e.g. tenders)")
	flags.StringVar(&opts.date, "date", "", "Date mode (none, past-month, past-6-months, last-year, past-5-years, custom)")
	flags.StringVar(&opts.from, "from", "", "Custom range start (YYYY-MM-DD)")
	flags.StringVar(&opts.to, "to", "", "Custom range end (YYYY-MM-DD)")
	flags.StringVar(&opts.lang, "lang", "en", "Language used for country names")
	flags.StringVar(&opts.now, "now", "", "Reference date for relative modes (YYYY-MM-DD, default today)")
	flags.BoolVar(&opts.json, "json", false, "Print results as JSON")
	return cmd
}
