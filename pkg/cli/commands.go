package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rolltodo/pkg/commands"
	"rolltodo/pkg/state"
)

var (
	passwordFlag string

	dateFlag string
	timeFlag string

	doneFlag   bool
	undoneFlag bool
	yesFlag    bool

	typeFlag string
)

var loginCmd = &cobra.Command{
	Use:   "login <roll-number>",
	Short: "Log in and remember the roll number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(false, func(ctx context.Context, a *app) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			return commands.HandleLogin(ctx, a.mgr, cmd.OutOrStdout(), argv[0], pw)
		})(cmd, argv)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <roll-number>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(false, func(ctx context.Context, a *app) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			return commands.HandleRegister(ctx, a.mgr, cmd.OutOrStdout(), argv[0], pw)
		})(cmd, argv)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached roll number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(false, func(ctx context.Context, a *app) error {
			return commands.HandleLogout(a.mgr, cmd.OutOrStdout())
		})(cmd, argv)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, argv []string) error {
		filter, err := state.FilterFromFlags(doneFlag, undoneFlag)
		if err != nil {
			return err
		}
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleList(a.mgr, cmd.OutOrStdout(), filter)
		})(cmd, argv)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <task>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleAddTask(ctx, a.mgr, cmd.OutOrStdout(), argv[0], dateFlag, timeFlag)
		})(cmd, argv)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <n>",
	Short: "Delete the task at position n",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		n, err := position(argv[0])
		if err != nil {
			return err
		}
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleRemove(ctx, a.mgr, cmd.OutOrStdout(), n)
		})(cmd, argv)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <n>",
	Short: "Toggle completion of the task at position n",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		n, err := position(argv[0])
		if err != nil {
			return err
		}
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleToggle(ctx, a.mgr, cmd.OutOrStdout(), n)
		})(cmd, argv)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <n> up|down",
	Short: "Move the task at position n one step",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, argv []string) error {
		n, err := position(argv[0])
		if err != nil {
			return err
		}
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleMove(ctx, a.client, a.mgr, cmd.OutOrStdout(), n, argv[1])
		})(cmd, argv)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tasks from a txt, json or yaml file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleImportCommand(ctx, a.client, a.mgr, cmd.OutOrStdout(), argv[0])
		})(cmd, argv)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export tasks to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandleExportCommand(a.mgr, cmd.OutOrStdout(), argv[0], typeFlag)
		})(cmd, argv)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all tasks, or only done/undone ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, argv []string) error {
		filter, err := state.FilterFromFlags(doneFlag, undoneFlag)
		if err != nil {
			return err
		}
		return withApp(true, func(ctx context.Context, a *app) error {
			return commands.HandlePurge(ctx, a.mgr, cmd.OutOrStdout(), cmd.InOrStdin(), filter, yesFlag)
		})(cmd, argv)
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme <default|blue|green|pink>",
	Short:     "Set the color theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"default", "blue", "green", "pink"},
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(false, func(ctx context.Context, a *app) error {
			return commands.HandleTheme(a.mgr, cmd.OutOrStdout(), argv[0])
		})(cmd, argv)
	},
}

var darkModeCmd = &cobra.Command{
	Use:   "darkmode",
	Short: "Toggle dark mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(false, func(ctx context.Context, a *app) error {
			return commands.HandleDarkMode(a.mgr, cmd.OutOrStdout())
		})(cmd, argv)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached session and preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, argv []string) error {
		return withApp(false, func(ctx context.Context, a *app) error {
			items, err := a.storage.Items()
			if err != nil {
				return fmt.Errorf("read local storage: %w", err)
			}
			return commands.HandleStatus(cmd.OutOrStdout(), a.client.BaseURL(), items)
		})(cmd, argv)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rolltodo %s\n", Version)
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&passwordFlag, "password", "p", "", "Password (prompted when omitted)")
	}

	addCmd.Flags().StringVar(&dateFlag, "date", "", "Date for task (YYYY-MM-DD format)")
	addCmd.Flags().StringVar(&timeFlag, "time", "", "Time for task (HH:MM format)")

	for _, c := range []*cobra.Command{listCmd, purgeCmd} {
		c.Flags().BoolVar(&doneFlag, "done", false, "Only done tasks")
		c.Flags().BoolVar(&undoneFlag, "undone", false, "Only undone tasks")
	}
	purgeCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation")

	exportCmd.Flags().StringVar(&typeFlag, "type", "json", "Export file type (json, txt, yaml)")
}

func password(cmd *cobra.Command) (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	return readPassword(cmd.InOrStdin(), cmd.OutOrStdout())
}

// position parses a 1-based task number.
func position(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task number %q", s)
	}
	return n, nil
}
