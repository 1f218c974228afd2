package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/client"
	"github.com/vovakirdan/roomchat-server/internal/log"
)

func main() {
	var (
		server   string
		username string
		password string
		room     string
		register bool
	)

	rootCmd := &cobra.Command{
		Use:          "roomchat",
		Short:        "Interactive terminal client for the roomchat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.New("warn", true)
			c := client.New(server, logger, client.Options{
				OnMessage: func(e client.Entry) {
					fmt.Printf("[%s] %s: %s\n", e.Room, e.Sender, e.Content)
				},
				OnHistory: func(r string, entries []client.Entry) {
					fmt.Printf("--- %s, last %d messages ---\n", r, len(entries))
					for _, e := range entries {
						fmt.Printf("[%s] %s: %s\n", e.Room, e.Sender, e.Content)
					}
				},
				OnPresence: func(r, user string, joined bool) {
					verb := "left"
					if joined {
						verb = "joined"
					}
					fmt.Printf("* %s %s %s\n", user, verb, r)
				},
			})
			defer c.Close()

			var err error
			if register {
				err = c.Register(ctx, username, password)
			} else {
				err = c.Login(ctx, username, password)
			}
			if err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			if err := c.Connect(ctx); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := c.Join(ctx, room); err != nil {
				return fmt.Errorf("join: %w", err)
			}

			fmt.Printf("Connected to %s as %s in room %s\n", server, username, room)
			fmt.Println("Type messages and press Enter to send. /join <room> switches, /quit exits.")

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					if err := handleLine(ctx, c, line); err != nil {
						if err == errQuit {
							return nil
						}
						fmt.Fprintf(os.Stderr, "error: %v\n", err)
					}
				}
			}
		},
	}

	rootCmd.Flags().StringVar(&server, "server", "http://localhost:8080", "server base URL")
	rootCmd.Flags().StringVarP(&username, "user", "u", "", "username")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "password")
	rootCmd.Flags().StringVar(&room, "room", "general", "room to join")
	rootCmd.Flags().BoolVar(&register, "register", false, "create the account first")
	rootCmd.MarkFlagRequired("user")
	rootCmd.MarkFlagRequired("password")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var errQuit = fmt.Errorf("quit")

func handleLine(ctx context.Context, c *client.Controller, line string) error {
	text := strings.TrimSpace(line)
	switch {
	case text == "":
		return nil
	case text == "/quit":
		return errQuit
	case strings.HasPrefix(text, "/join "):
		return c.Join(ctx, strings.TrimSpace(strings.TrimPrefix(text, "/join ")))
	case text == "/leave":
		return c.Leave(ctx)
	default:
		_, err := c.Send(ctx, text)
		return err
	}
}
