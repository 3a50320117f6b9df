// Package main provides a CLI for submitting lead forms to a leadgate server,
// following lead notifications and minting admin tokens for the
// security-event API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadgate/internal/lead/client"
	"leadgate/internal/lead/models"
	"leadgate/internal/lead/notify"
	"leadgate/internal/platform/kafka/consumer"
	"leadgate/internal/platform/logger"
	"leadgate/internal/platform/privacy"
	"leadgate/pkg/platform/middleware/admin"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultTokenTTL  = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Subject   string            `json:"subject"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	watchCmd := flag.NewFlagSet("watch", flag.ExitOnError)

	submitServer := submitCmd.String("server", envOr("LEADGATE_URL", defaultServerURL), "leadgate base URL")
	submitType := submitCmd.String("form-type", "", "Product form type (auto, moto, habitation, ...)")
	submitFile := submitCmd.String("file", "-", "JSON form data file, - for stdin")
	submitPersist := submitCmd.Bool("persist", true, "Ask the server to store the lead in the CMS")
	submitTimeout := submitCmd.Duration("timeout", 30*time.Second, "Request timeout")

	tokenSecret := tokenCmd.String("secret", os.Getenv("ADMIN_JWT_SECRET"), "HS256 secret (defaults to ADMIN_JWT_SECRET)")
	tokenSubject := tokenCmd.String("subject", "ops", "Token subject recorded as the admin actor")
	tokenTTL := tokenCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	tokenJSON := tokenCmd.Bool("json", false, "Output as JSON")

	watchBrokers := watchCmd.String("brokers", os.Getenv("KAFKA_BROKERS"), "Kafka bootstrap servers (defaults to KAFKA_BROKERS)")
	watchTopic := watchCmd.String("topic", envOr("LEAD_NOTIFICATION_TOPIC", "leads.submitted"), "Lead notification topic")
	watchGroup := watchCmd.String("group", "devisctl-watch", "Consumer group")
	watchFromStart := watchCmd.Bool("from-start", false, "Read the topic from the earliest offset for a new group")
	watchReveal := watchCmd.Bool("reveal", false, "Print contact details unmasked")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "submit":
		_ = submitCmd.Parse(os.Args[2:])
		os.Exit(submit(*submitServer, *submitType, *submitFile, *submitPersist, *submitTimeout))
	case "token":
		_ = tokenCmd.Parse(os.Args[2:])
		issueToken(*tokenSecret, *tokenSubject, *tokenTTL, *tokenJSON)
	case "watch":
		_ = watchCmd.Parse(os.Args[2:])
		os.Exit(watch(*watchBrokers, *watchTopic, *watchGroup, *watchFromStart, *watchReveal))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`devisctl - Submit quote requests and manage leadgate access

Usage:
  devisctl <command> [flags]

Commands:
  submit    Submit a lead form through /api/send-devis
  watch     Print lead notifications as they arrive on Kafka
  token     Issue an admin token for /api/admin/security-events

Examples:
  # Submit an auto quote request from a file
  devisctl submit -form-type auto -file auto.json

  # Read the form from stdin without storing it in the CMS
  cat moto.json | devisctl submit -form-type moto -persist=false

  # Follow new leads with contact details masked
  devisctl watch -brokers localhost:9092

  # Issue a one-hour admin token
  ADMIN_JWT_SECRET=... devisctl token -subject ops@example.com

Use "devisctl <command> -h" for more information about a command.`)
}

// submit returns the process exit code: 0 on success, 2 on a rejected
// submission, 1 on local errors.
func submit(server, formType, file string, persist bool, timeout time.Duration) int {
	log := logger.New(envOr("LOG_LEVEL", "warn"))

	product, ok := models.ParseProduct(formType)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown form type %q\n", formType)
		return 1
	}
	raw, err := readInput(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading form: %v\n", err)
		return 1
	}
	form, err := models.DecodeForm(product, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding form: %v\n", err)
		return 1
	}

	c, err := client.New(server, client.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := c.SubmitForm(ctx, form, persist)
	printJSON(result)
	if !result.Success {
		return 2
	}
	return 0
}

// watch consumes lead notifications until interrupted.
func watch(brokers, topic, group string, fromStart, reveal bool) int {
	log := logger.New(envOr("LOG_LEVEL", "warn"))

	offsetReset := "latest"
	if fromStart {
		offsetReset = "earliest"
	}
	handler := notify.NewHandler(func(_ context.Context, n notify.Notification) error {
		if !reveal {
			n.Contact.Email = privacy.MaskEmail(n.Contact.Email)
			n.Contact.Telephone = privacy.MaskPhone(n.Contact.Telephone)
			maskPayload(n.Payload)
		}
		printJSON(n)
		return nil
	})
	cons, err := consumer.New(consumer.Config{
		Brokers:         brokers,
		GroupID:         group,
		AutoOffsetReset: offsetReset,
	}, handler, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cons.Subscribe(topic); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s as group %s (Ctrl-C to stop)\n", topic, group)
	cons.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cons.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error stopping consumer: %v\n", err)
		return 1
	}
	return 0
}

// maskPayload masks the contact fields embedded in a decoded canonical
// payload.
func maskPayload(payload any) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return
	}
	if email, ok := fields["email"].(string); ok {
		fields["email"] = privacy.MaskEmail(email)
	}
	if phone, ok := fields["telephone"].(string); ok {
		fields["telephone"] = privacy.MaskPhone(phone)
	}
}

func issueToken(secret, subject string, ttl time.Duration, jsonOutput bool) {
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: -secret or ADMIN_JWT_SECRET is required")
		os.Exit(1)
	}
	token, err := admin.IssueToken([]byte(secret), subject, ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Subject:   subject,
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}
	fmt.Println("Admin Token (HS256)")
	fmt.Println("===================")
	fmt.Printf("Subject:    %s\n", subject)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/admin/security-events")
}

func readInput(file string) (json.RawMessage, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
