package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"webscraper/pkg/ui"
	"webscraper/pkg/webscraper"
)

var schedule webscraper.SchedulerConfig

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage recurring scraping of a sitemap",
	Long: `Enable, disable and inspect the scheduler of a sitemap.

The schedule uses cron fields evaluated in the given timezone.`,
}

var schedulerEnableCmd = &cobra.Command{
	Use:   "enable <sitemap-id>",
	Short: "Scrape a sitemap on a schedule",
	Example: `  # Every day at 06:30 UTC
  webscraper scheduler enable 123 --minute 30 --hour 6

  # Hourly on weekdays in Riga time with the JavaScript driver
  webscraper scheduler enable 123 --minute 0 --weekday 1-5 --timezone Europe/Riga --driver fulljs`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedulerEnable,
}

var schedulerDisableCmd = &cobra.Command{
	Use:   "disable <sitemap-id>",
	Short: "Stop scraping a sitemap on a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerDisable,
}

var schedulerGetCmd = &cobra.Command{
	Use:   "get <sitemap-id>",
	Short: "Show the scheduler of a sitemap",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerGet,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerEnableCmd)
	schedulerCmd.AddCommand(schedulerDisableCmd)
	schedulerCmd.AddCommand(schedulerGetCmd)

	flags := schedulerEnableCmd.Flags()
	flags.StringVar(&schedule.CronMinute, "minute", "0", "cron minute field")
	flags.StringVar(&schedule.CronHour, "hour", "*", "cron hour field")
	flags.StringVar(&schedule.CronDay, "day", "*", "cron day of month field")
	flags.StringVar(&schedule.CronMonth, "month", "*", "cron month field")
	flags.StringVar(&schedule.CronWeekday, "weekday", "*", "cron day of week field")
	flags.StringVar(&schedule.CronTimezone, "timezone", "UTC", "timezone the schedule is evaluated in")
	flags.IntVar(&schedule.RequestInterval, "request-interval", 2000, "request interval in milliseconds")
	flags.IntVar(&schedule.PageLoadDelay, "page-load-delay", 2000, "page load delay in milliseconds")
	flags.StringVar(&schedule.Driver, "driver", "fast", "driver: fast or fulljs")
	flags.IntVar(&schedule.Proxy, "proxy", 0, "proxy: 0 off, 1 on, or a custom proxy id")
}

func runSchedulerEnable(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "sitemap")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	if err := client.EnableSitemapScheduler(cmd.Context(), id, schedule); err != nil {
		return fmt.Errorf("failed to enable scheduler of sitemap %d: %w", id, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Scheduler enabled for sitemap %d: %s", id, cronText(&schedule)))
	return nil
}

func runSchedulerDisable(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "sitemap")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	if err := client.DisableSitemapScheduler(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to disable scheduler of sitemap %d: %w", id, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Scheduler disabled for sitemap %d", id))
	return nil
}

func runSchedulerGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "sitemap")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	cfg, err := client.GetSitemapScheduler(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get scheduler of sitemap %d: %w", id, err)
	}

	return render(cmd, cfg, func(w io.Writer) error {
		table := newTable(w, "Field", "Value")
		for _, row := range [][]string{
			{"Enabled", yesNo(cfg.SchedulerEnabled)},
			{"Schedule", cronText(cfg)},
			{"Timezone", cfg.CronTimezone},
			{"Driver", cfg.Driver},
			{"Request interval", strconv.Itoa(cfg.RequestInterval) + " ms"},
			{"Page load delay", strconv.Itoa(cfg.PageLoadDelay) + " ms"},
			{"Proxy", strconv.Itoa(cfg.Proxy)},
		} {
			_ = table.Append(row)
		}
		return table.Render()
	})
}

func cronText(cfg *webscraper.SchedulerConfig) string {
	return fmt.Sprintf("%s %s %s %s %s", cfg.CronMinute, cfg.CronHour, cfg.CronDay, cfg.CronMonth, cfg.CronWeekday)
}
