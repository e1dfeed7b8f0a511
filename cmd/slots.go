package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/4Lajf/grafikonator-6000/infra/logger"
)

var (
	slotsFrom string
	slotsTo   string
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Generate the time slot grid for a date range",
	RunE:  runSlots,
}

func init() {
	today := time.Now().Format("2006-01-02")
	slotsCmd.Flags().StringVar(&slotsFrom, "from", today, "first date of the range (YYYY-MM-DD)")
	slotsCmd.Flags().StringVar(&slotsTo, "to", today, "last date of the range (YYYY-MM-DD)")
	rootCmd.AddCommand(slotsCmd)
}

func runSlots(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	count, err := svc.GenerateSlots(ctx, slotsFrom, slotsTo)
	if err != nil {
		return err
	}
	logger.New("slots-command").Infof("wrote %d slots for %s..%s", count, slotsFrom, slotsTo)
	return nil
}
