package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roomdisplay/internal/booking"
	"roomdisplay/internal/config"
	"roomdisplay/internal/graph"
	"roomdisplay/internal/graphtime"
)

// checkCmd verifies credentials and API reachability before anyone mounts
// the display on a wall: token acquisition, business listing, and today's
// appointment fetch, each reported pass/fail.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify Graph API credentials and connectivity",
	RunE:  runCheck,
}

var (
	passMark = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
)

func runCheck(cmd *cobra.Command, _ []string) error {
	fmt.Println("Microsoft Bookings API connection test")
	fmt.Println(strings.Repeat("=", 50))

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		fmt.Printf("%s failed to load config: %v\n", failMark, err)
		return err
	}
	if !cfg.HasCredentials() {
		fmt.Printf("%s credentials incomplete\n", failMark)
		fmt.Println("  Set graph.client_id, graph.client_secret, graph.tenant_id and")
		fmt.Println("  graph.booking_business_id in the config file, or export the")
		fmt.Println("  CLIENT_ID, CLIENT_SECRET, TENANT_ID, BOOKING_BUSINESS_ID variables.")
		return errors.New("credentials incomplete")
	}

	client := graph.NewClient(graph.Credentials{
		ClientID:          cfg.Graph.ClientID,
		ClientSecret:      cfg.Graph.ClientSecret,
		TenantID:          cfg.Graph.TenantID,
		BookingBusinessID: cfg.Graph.BookingBusinessID,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Println("1. Getting access token...")
	tok, err := client.AcquireToken(ctx)
	if err != nil {
		fmt.Printf("   %s %v\n", failMark, err)
		return err
	}
	fmt.Printf("   %s access token obtained\n", passMark)

	fmt.Println("\n2. Listing booking businesses...")
	businesses, err := client.Businesses(ctx, tok)
	if err != nil {
		fmt.Printf("   %s %v\n", failMark, err)
		return err
	}
	fmt.Printf("   %s found %d booking business(es)\n", passMark, len(businesses))
	for _, b := range businesses {
		fmt.Printf("   - ID: %s\n", b.ID)
		fmt.Printf("     Name: %s\n", valueOr(b.DisplayName, "N/A"))
		fmt.Printf("     Email: %s\n", valueOr(b.Email, "N/A"))
	}

	fmt.Println("\n3. Fetching today's appointments...")
	loc := cfg.Location()
	now := time.Now().In(loc)
	win := graphtime.DayWindow(now)
	startUTC, endUTC := win.UTCBounds()

	records, err := client.CalendarView(ctx, tok, startUTC, endUTC)
	if errors.Is(err, graph.ErrUnsupported) {
		fmt.Println("   calendarView unsupported, using full appointment list")
		records, err = client.Appointments(ctx, tok)
	}
	if err != nil {
		fmt.Printf("   %s %v\n", failMark, err)
		return err
	}
	fmt.Printf("   %s found %d appointment(s)\n", passMark, len(records))

	for i, rec := range records {
		fmt.Printf("   %d. %s\n", i+1, rec.Title())
		start, serr := graphtime.Parse(rec.StartDateTime.DateTime)
		end, eerr := graphtime.Parse(rec.EndDateTime.DateTime)
		if serr != nil || eerr != nil {
			fmt.Printf("      Time: %s - %s\n", rec.StartDateTime.DateTime, rec.EndDateTime.DateTime)
			continue
		}
		fmt.Printf("      Time: %s - %s\n",
			start.In(loc).Time.Format("3:04 PM"),
			end.In(loc).Time.Format("3:04 PM"))
	}

	if display, ok := booking.Select(records, now, loc); ok {
		kind := "Next"
		if display.IsCurrent {
			kind = "Current"
		}
		fmt.Printf("\n%s booking on the display: %s at %s\n", kind, display.Title, display.Start)
	} else {
		fmt.Println("\nRoom would show as available.")
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("%s all checks passed, the display server is ready to run\n", passMark)
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
