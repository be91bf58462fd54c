package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/stemsi/certify-backend/internal/app"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/logger"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/schedule"
	"github.com/stemsi/certify-backend/internal/service"
)

// Prints the upcoming exam days with their load and a status summary of
// every appointment.
func main() {
	days := flag.Int("days", service.DefaultDayCount, "number of eligible days to list")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup("warn", cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rt, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer rt.Close()

	svc := app.NewServices(ctx, cfg, rt.Store, nil, log)

	color.Cyan("\n=== %s: Exam Schedule ===", cfg.AppName)

	from, to := svc.Booking.DefaultWindow()
	printDays(svc.Booking.Days(from, to, *days))
	printStatusSummary(svc.Admin.Appointments(service.AppointmentFilter{}))
}

func printDays(days []schedule.DayAvailability) {
	color.Yellow("\nUpcoming Exam Days")
	if len(days) == 0 {
		color.Red("No eligible days in the booking window.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Day", "Capacity", "Booked", "Remaining", "Note"})

	for _, d := range days {
		note := ""
		switch {
		case d.Blocked:
			note = color.RedString("blocked %s", d.BlockNote)
		case d.Remaining == 0:
			note = color.RedString("full")
		case d.Remaining*4 <= d.Capacity:
			note = color.YellowString("almost full")
		default:
			note = color.GreenString("open")
		}
		table.Append([]string{
			d.Date,
			d.Weekday,
			strconv.Itoa(d.Capacity),
			strconv.Itoa(d.Occupied),
			strconv.Itoa(d.Remaining),
			note,
		})
	}
	table.Render()
}

func printStatusSummary(appts []model.AdminAppointmentRecord) {
	color.Yellow("\nAppointments by Status")

	counts := make(map[model.AppointmentStatus]int)
	for _, a := range appts {
		counts[a.Status]++
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Status", "Count"})
	for _, s := range []model.AppointmentStatus{
		model.AppointmentPending,
		model.AppointmentApproved,
		model.AppointmentRejected,
		model.AppointmentCancelled,
	} {
		table.Append([]string{string(s), strconv.Itoa(counts[s])})
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(appts))})
	table.Render()
}
