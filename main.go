// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hicompanion/internal/config"
	"hicompanion/internal/gateway"
	"hicompanion/internal/logger"
	"hicompanion/internal/redemption"
	"hicompanion/internal/schedule"
	"hicompanion/internal/shop"
)

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	if err := logger.SetupLogger(config.LoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Step 3: Load API configuration
	if err := config.LoadAPIConfig(); err != nil {
		logger.LogFatal("Failed to load API config: %v", err)
	}
	config.LogCurrentEnvironment()

	// Step 4: Build the client and services. Services are constructed here
	// and passed down; their lifetime is this invocation.
	client := gateway.New(config.APIBase(), config.UserToken(), config.RequestTimeout())

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := dispatch(ctx, client, os.Args[1], os.Args[2:]); err != nil {
		title, detail := describeError(err)
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, detail)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: hicompanion <command> [args]

commands:
  shop [--raffle]          list point-shop items (merch by default)
  cart                     show the current cart and balance
  cart add <itemId>        add one unit to the cart
  cart remove <itemId>     remove one unit from the cart
  qr                       poll for redemption QR payloads until interrupted
  buy <itemId> <instance>  finalize a scanned item redemption (staff)
  balance                  show the current point balance
  checkin-qr               show the user's check-in QR payload
  checkin <eventId>        self check-in to an event
  schedule [--refresh]     show the cached event schedule
  leaderboard [--limit N]  show the points leaderboard`)
}

func dispatch(ctx context.Context, client *gateway.Client, command string, args []string) error {
	switch command {
	case "shop":
		return runShop(ctx, client, args)
	case "cart":
		return runCart(ctx, client, args)
	case "qr":
		return runQR(client)
	case "buy":
		return runBuy(ctx, client, args)
	case "balance":
		return runBalance(ctx, client)
	case "checkin-qr":
		return runCheckInQR(ctx, client)
	case "checkin":
		return runCheckIn(ctx, client, args)
	case "schedule":
		return runSchedule(ctx, client, args)
	case "leaderboard":
		return runLeaderboard(ctx, client, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runShop(ctx context.Context, client *gateway.Client, args []string) error {
	fs := flag.NewFlagSet("shop", flag.ExitOnError)
	raffle := fs.Bool("raffle", false, "show raffle items instead of merch")
	fs.Parse(args)

	catalog := shop.NewCatalog(client)
	if _, err := catalog.Refresh(ctx); err != nil {
		return err
	}

	items := catalog.Filter(*raffle)
	if len(items) == 0 {
		fmt.Println("No items.")
		return nil
	}
	for _, item := range items {
		if item.IsRaffle {
			fmt.Printf("%-20s %5d pts  (raffle)  %s\n", item.ItemID, item.Price, item.Name)
		} else {
			fmt.Printf("%-20s %5d pts  %3d left  %s\n", item.ItemID, item.Price, item.Quantity, item.Name)
		}
	}
	return nil
}

func runCart(ctx context.Context, client *gateway.Client, args []string) error {
	cart := shop.NewCart(client)
	balance := shop.NewBalance(client)

	var (
		items map[string]int
		err   error
	)
	switch {
	case len(args) == 0:
		items, err = cart.Load(ctx)
	case args[0] == "add" && len(args) == 2:
		items, err = cart.Add(ctx, args[1])
	case args[0] == "remove" && len(args) == 2:
		items, err = cart.Remove(ctx, args[1])
	default:
		return fmt.Errorf("usage: cart [add|remove <itemId>]")
	}

	// Balance is refreshed after every cart resolution, success or not: a
	// refetch is cheap and keeps the displayed number honest.
	points, balErr := balance.Refresh(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("Cart is empty.")
	} else {
		for id, count := range items {
			fmt.Printf("%-20s x%d\n", id, count)
		}
	}
	if balErr == nil {
		fmt.Printf("Balance: %d pts\n", points)
	} else {
		logger.LogWarn("Balance refresh failed: %v", balErr)
	}
	return nil
}

// runQR keeps a redemption session polling until the process is interrupted
// or a poll fails. This is the CLI stand-in for the QR screen being open.
func runQR(client *gateway.Client) error {
	done := make(chan error, 1)
	session := redemption.NewSession(client, redemption.Config{
		Interval: config.PollInterval(),
		OnToken: func(token string) {
			fmt.Printf("[%s] redemption payload: %s\n", time.Now().Format("15:04:05"), token)
		},
		OnError: func(err error) {
			done <- shop.Classify(err)
		},
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	session.Start()
	defer session.Stop()

	select {
	case <-stop:
		logger.LogInfo("Interrupt received, stopping redemption session")
		return nil
	case err := <-done:
		return err
	}
}

func runBuy(ctx context.Context, client *gateway.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: buy <itemId> <instance>")
	}
	result, err := client.BuyItem(ctx, args[0], args[1])
	if err != nil {
		return shop.Classify(err)
	}
	fmt.Printf("Redeemed %s\n", result.ItemID)
	return nil
}

func runBalance(ctx context.Context, client *gateway.Client) error {
	balance := shop.NewBalance(client)
	points, err := balance.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Balance: %d pts\n", points)
	return nil
}

func runCheckInQR(ctx context.Context, client *gateway.Client) error {
	payload, err := client.UserQR(ctx)
	if err != nil {
		return shop.Classify(err)
	}
	fmt.Printf("check-in payload: %s\n", payload)
	return nil
}

func runCheckIn(ctx context.Context, client *gateway.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: checkin <eventId>")
	}
	result, err := client.ScanEvent(ctx, args[0])
	if err != nil {
		return shop.Classify(err)
	}
	fmt.Printf("Checked in: +%d pts (total %d)\n", result.Points, result.TotalPoints)
	return nil
}

func runSchedule(ctx context.Context, client *gateway.Client, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "refetch the schedule before listing")
	fs.Parse(args)

	store, err := schedule.OpenStore(config.ScheduleDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	service := schedule.NewService(client, store)
	if *refresh {
		if _, err := service.Refresh(ctx); err != nil {
			// Stale schedule beats no schedule; fall through to the cache.
			logger.LogWarn("Schedule refresh failed, showing cached events: %v", err)
		}
	}

	events, err := service.Events(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No cached events. Run `schedule --refresh`.")
		return nil
	}
	for _, ev := range events {
		start := time.Unix(ev.StartTime, 0).Format("Mon 15:04")
		fmt.Printf("%s  %-30s %s (%d pts)\n", start, ev.Name, ev.EventType, ev.Points)
	}
	return nil
}

func runLeaderboard(ctx context.Context, client *gateway.Client, args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of entries to show")
	fs.Parse(args)

	entries, err := client.Leaderboard(ctx, *limit)
	if err != nil {
		return shop.Classify(err)
	}
	for i, entry := range entries {
		name := entry.Discord
		if name == "" {
			name = entry.ID
		}
		fmt.Printf("%2d. %-24s %d pts\n", i+1, name, entry.Points)
	}
	return nil
}

// describeError maps an error to a short title and description for display.
func describeError(err error) (string, string) {
	switch shop.KindOf(err) {
	case shop.Network:
		return "Connection problem", "Could not reach the server. Check your connection and try again."
	case shop.Unauthenticated:
		return "Signed out", "Your session has expired. Sign in again."
	case shop.InsufficientQuantity:
		return "Out of stock", "That item is no longer available."
	case shop.InsufficientFunds:
		return "Not enough points", "You do not have enough points for that."
	case shop.ItemNotFound:
		return "Not found", "That item does not exist."
	default:
		return "Something went wrong", err.Error()
	}
}
