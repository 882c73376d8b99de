package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-guestbot/internal/config"
	"wedding-guestbot/internal/engine"
	"wedding-guestbot/internal/phone"
	"wedding-guestbot/internal/registry"
	"wedding-guestbot/internal/store"
	"wedding-guestbot/internal/whatsapp"
)

func main() {
	fmt.Println("🎉 Wedding Guest Intake Bot")
	fmt.Println("===========================")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().Level(level)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("cannot create data directory")
	}

	sessions, err := store.Open(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open session store")
	}
	defer sessions.Close()

	norm := phone.NewNormalizer(cfg.CountryCode)

	reg, err := openRegistry(context.Background(), cfg, norm, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open guest registry")
	}

	service, err := whatsapp.NewService(context.Background(), whatsapp.Config{DataDir: cfg.DataDir}, sessions, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize WhatsApp service")
	}

	eng := engine.New(sessions, reg, service.Prompter(), norm, engine.Config{
		DuplicateCheck:    cfg.DuplicateCheck,
		CollectPartySize:  cfg.CollectPartySize,
		CollectLikelihood: cfg.CollectLikelihood,
		MaxPartySize:      cfg.MaxPartySize,
	}, log)
	service.SetSink(eng)

	fmt.Println("Connecting to WhatsApp...")
	if err := service.Connect(); err != nil {
		log.Fatal().Err(err).Msg("cannot connect to WhatsApp")
	}

	fmt.Println("\n✅ Connected! Share a contact card with the bot to add a guest.")

	go startCLI(reg, sessions)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("\n\nShutting down...")
	service.Disconnect()
	fmt.Println("Goodbye! 👋")
}

// openRegistry picks the Google Sheets backend when a sheet id is configured,
// otherwise a JSON file under the data directory.
func openRegistry(ctx context.Context, cfg *config.Config, norm *phone.Normalizer, log zerolog.Logger) (engine.Registry, error) {
	if cfg.GoogleSheetID == "" {
		log.Warn().Msg("GOOGLE_SHEET_ID not set, using local JSON registry")
		return registry.NewFileRegistry(filepath.Join(cfg.DataDir, "guests.json"))
	}

	creds, err := os.ReadFile(cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read Google credentials: %w", err)
	}
	return registry.NewSheetsRegistry(ctx, creds, cfg.GoogleSheetID, norm, log)
}

func startCLI(reg engine.Registry, sessions *store.SQLStore) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. View all guests")
		fmt.Println("  2. View guests by group")
		fmt.Println("  3. Show session stats")
		fmt.Println("  4. Clean up old message log")
		fmt.Println("  5. Exit")
		fmt.Print("\nEnter command (1-5): ")

		if !scanner.Scan() {
			break
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			viewAllGuests(reg)
		case "2":
			viewGuestsByGroup(scanner, reg)
		case "3":
			showSessionStats(sessions)
		case "4":
			cleanupMessageLog(sessions)
		case "5":
			fmt.Println("Exiting...")
			os.Exit(0)
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func viewAllGuests(reg engine.Registry) {
	guests, err := reg.List(context.Background())
	if err != nil {
		fmt.Printf("❌ Error listing guests: %v\n", err)
		return
	}
	if len(guests) == 0 {
		fmt.Println("\nNo guests yet.")
		return
	}

	total := 0
	fmt.Printf("\n📋 All Guests (%d entries):\n", len(guests))
	fmt.Println(strings.Repeat("-", 60))
	for _, g := range guests {
		fmt.Printf("Name: %s\n", g.Name)
		fmt.Printf("Phone: %s\n", g.Phone)
		fmt.Printf("Group: %s\n", g.Group)
		if g.PartySize > 0 {
			fmt.Printf("Party size: %d\n", g.PartySize)
			total += g.PartySize
		} else {
			total++
		}
		if !g.AddedAt.IsZero() {
			fmt.Printf("Added: %s\n", g.AddedAt.Format("2006-01-02 15:04"))
		}
		fmt.Println(strings.Repeat("-", 60))
	}
	fmt.Printf("Total expected people: %d\n", total)
}

func viewGuestsByGroup(scanner *bufio.Scanner, reg engine.Registry) {
	fmt.Print("Enter group filter (e.g., Leehe, Family, Keisari): ")
	if !scanner.Scan() {
		return
	}
	filter := strings.ToLower(strings.TrimSpace(scanner.Text()))

	guests, err := reg.List(context.Background())
	if err != nil {
		fmt.Printf("❌ Error listing guests: %v\n", err)
		return
	}

	matched := 0
	fmt.Println(strings.Repeat("-", 60))
	for _, g := range guests {
		if filter != "" && !strings.Contains(strings.ToLower(g.Group), filter) {
			continue
		}
		matched++
		fmt.Printf("%-30s %-20s %s\n", g.Name, g.Phone, g.Group)
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%d matching guests.\n", matched)
}

func showSessionStats(sessions *store.SQLStore) {
	n, err := sessions.Count(context.Background())
	if err != nil {
		fmt.Printf("❌ Error counting sessions: %v\n", err)
		return
	}
	fmt.Printf("\n💬 Known conversations: %d\n", n)
}

func cleanupMessageLog(sessions *store.SQLStore) {
	cutoff := time.Now().AddDate(0, 0, -7)
	removed, err := sessions.CleanupProcessedBefore(context.Background(), cutoff)
	if err != nil {
		fmt.Printf("❌ Error cleaning up: %v\n", err)
		return
	}
	fmt.Printf("🧹 Removed %d processed-message entries older than a week.\n", removed)
}
