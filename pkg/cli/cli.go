package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rolltodo/pkg/api"
	"rolltodo/pkg/config"
	"rolltodo/pkg/database"
	"rolltodo/pkg/state"
	"rolltodo/pkg/utils"
)

// Version is set at build time with -ldflags "-X rolltodo/pkg/cli.Version=...".
var Version = "dev"

// Args holds the global flags
type Args struct {
	ConfigPath string
	APIURL     string
	Database   string
	Verbose    bool
}

var (
	args    Args
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "rolltodo",
		Short: "Todo list client for the roll-number task store",
		Long: `rolltodo keeps a personal todo list on a remote task store, keyed by roll number.

Run without a subcommand to open the terminal UI.`,
		RunE:          runUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&args.ConfigPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&args.APIURL, "api-url", "", "Task store base URL")
	rootCmd.PersistentFlags().StringVar(&args.Database, "database", "", "Path to the local storage database")
	rootCmd.PersistentFlags().BoolVarP(&args.Verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		loginCmd,
		registerCmd,
		logoutCmd,
		listCmd,
		addCmd,
		rmCmd,
		toggleCmd,
		moveCmd,
		importCmd,
		exportCmd,
		purgeCmd,
		themeCmd,
		darkModeCmd,
		statusCmd,
		versionCmd,
	)
	rootCmd.Version = Version
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// app bundles everything a command needs.
type app struct {
	cfg     config.Config
	styles  config.Styles
	storage *database.Storage
	client  *api.Client
	mgr     *state.Manager
}

// setup loads configuration, opens local storage and builds the manager with
// the persisted preferences applied. The session is not restored yet.
func setup() (*app, error) {
	cfg, styles, err := config.Load(config.Options{
		ConfigPath: args.ConfigPath,
		APIURL:     args.APIURL,
		Database:   args.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	utils.InitLogger(args.Verbose, cfg.LogLevel)

	storage, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("error opening local storage: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:           cfg.APIURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		storage.Close()
		return nil, err
	}

	mgr := state.NewManager(client, storage)
	mgr.RestorePreferences()
	utils.Debug("setup complete", "api_url", client.BaseURL(), "database", cfg.Database)

	return &app{cfg: cfg, styles: styles, storage: storage, client: client, mgr: mgr}, nil
}

// restore resumes the cached session and loads its tasks.
func (a *app) restore(ctx context.Context) error {
	if err := a.mgr.Restore(ctx); err != nil {
		return fmt.Errorf("could not load tasks: %w", err)
	}
	if !a.mgr.Snapshot().Session.LoggedIn() {
		return fmt.Errorf("%w: run 'rolltodo login' first", state.ErrNotLoggedIn)
	}
	return nil
}

func (a *app) close() {
	a.mgr.Wait()
	if err := a.storage.Close(); err != nil {
		utils.Warn("error closing local storage", "error", err)
	}
	utils.CloseLogger()
}

// withApp runs fn with a ready app. When needSession is set the cached
// session is restored first and the command fails without one.
func withApp(needSession bool, fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if needSession {
			if err := a.restore(ctx); err != nil {
				return err
			}
		}
		return fn(ctx, a)
	}
}

// readPassword prompts on out and reads a line from in without echo when in
// is a terminal.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
