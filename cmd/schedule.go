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

var scheduleDate string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run one batch scheduling pass for a date",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleDate, "date", time.Now().Format("2006-01-02"), "date to schedule (YYYY-MM-DD)")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	logg := logger.New("schedule-command")
	result, err := svc.ScheduleDay(ctx, scheduleDate)
	if err != nil {
		return err
	}
	logg.Infof("run %s: %d assigned, %d unfilled, %d processed",
		result.RunID, len(result.Successes), len(result.Failures), result.TotalProcessed)
	for _, f := range result.Failures {
		logg.Warnf("unfilled %s %s (%s): %s",
			f.TimeSlot.Date, f.TimeSlot.StartTime, f.Department.Name, f.Error)
	}
	return nil
}
