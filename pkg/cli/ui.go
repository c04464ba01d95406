package cli

import (
	"context"

	"github.com/spf13/cobra"

	"rolltodo/pkg/ui"
)

// runUI opens the terminal UI. The cached session is restored by the UI
// itself so a missing login shows the login screen instead of failing.
func runUI(cmd *cobra.Command, argv []string) error {
	return withApp(false, func(ctx context.Context, a *app) error {
		return ui.Run(ctx, a.mgr, a.cfg, a.styles)
	})(cmd, argv)
}
