package cli

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/notify"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// buyCmd purchases one course and waits for confirmation.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var buyCmd = &cobra.Command{
	Use:   "buy <course>",
	Short: "Purchase a course",
	Long: `Connect the wallet, check the course price and your access, then
submit a purchase paying exactly the listed price and wait for it to be
mined.

The wallet asks for approval before signing unless --yes is given.`,
	Example: `  skillmint buy 2
  skillmint buy 2 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runBuy,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(buyCmd)
}

func runBuy(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return storeerr.WithDetails(storeerr.ErrInvalidInput, map[string]string{"course": args[0]})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	ch, unsubscribe := env.client.Notifications(notify.DefaultBuffer)
	done := printNotifications(ch, cmd.ErrOrStderr())
	defer func() {
		unsubscribe()
		<-done
	}()

	if err := env.client.Connect(ctx); err != nil {
		return err
	}
	env.client.Wait()

	if _, err := env.client.Purchase(ctx, catalog.ItemID(id)); err != nil {
		return err
	}

	unsubscribe()
	<-done
	return renderStore(env.client)
}
