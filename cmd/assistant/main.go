package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/acmedental/booking-agent/internal/agent"
	"github.com/acmedental/booking-agent/internal/app/bootstrap"
	"github.com/acmedental/booking-agent/internal/config"
	"github.com/acmedental/booking-agent/pkg/logging"
)

func main() {
	// Missing .env is fine; environment variables may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()

	// Logs go to stderr so the conversation on stdout stays clean.
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	rt, err := bootstrap.New(ctx, cfg, agent.NewMemoryHistoryStore(), nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Welcome to Acme Dental AI Booking Assistant")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
	fmt.Println("Hello! 👋 I'm here to help you book a dental checkup appointment.")
	fmt.Println("Type 'exit', 'quit', or 'q' to end the conversation")
	fmt.Println()

	conversationID := agent.NewConversationID()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Println("\nThank you for using Acme Dental booking assistant. Goodbye!")
			return
		case "":
			continue
		}

		reply, err := rt.Agent.Respond(ctx, conversationID, input)
		if err != nil {
			fmt.Printf("\nError: %v\n\n", err)
			fmt.Println("Please try again or type 'exit' to quit.")
			fmt.Println()
			continue
		}

		fmt.Printf("\nAgent: %s\n\n", reply)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}
