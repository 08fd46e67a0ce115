package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/skillmint/internal/notify"
	"github.com/mrz1836/skillmint/internal/output"
	"github.com/mrz1836/skillmint/internal/storefront"
	"github.com/mrz1836/skillmint/internal/view"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// storeCmd shows the catalog for the connected wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Show courses with prices and your access",
	Long: `Connect the configured wallet, load course prices and ownership from
the contract and print the catalog.

Without a wallet the catalog is shown in its disconnected state.`,
	Example: `  skillmint store
  skillmint store -o json`,
	RunE: runStore,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	env, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	if err := env.client.Connect(ctx); err != nil && !errors.Is(err, storeerr.ErrProviderUnavailable) {
		return err
	}
	env.client.Wait()

	return renderStore(env.client)
}

// renderStore prints the client's current state as a storefront page.
func renderStore(client *storefront.Client) error {
	model := view.Render(client.Snapshot())
	return formatter.Render(model, func(w io.Writer) error {
		return view.WriteText(w, model)
	})
}

// printNotifications writes each notification to w as a one-line toast
// until ch is closed. The returned channel closes when printing stops.
func printNotifications(ch <-chan notify.Notification, w io.Writer) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := range ch {
			switch {
			case n.Kind.IsError():
				_ = output.Failure(w, n.Message)
			case n.Kind == notify.KindPurchaseSucceeded:
				_ = output.Success(w, n.Message)
			case n.Kind == notify.KindDisconnected:
				_ = output.Warn(w, n.Message)
			default:
				_ = output.Info(w, n.Message)
			}
		}
	}()
	return done
}
