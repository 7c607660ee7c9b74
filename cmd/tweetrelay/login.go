package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"tweetrelay/pkg/auth"
)

// runLogin prompts for the two API tokens and stores them through the
// credential store chain (keychain, then encrypted file)
func runLogin() error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential storage: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	bearer, err := promptSecret("Twitter bearer token: ")
	if err != nil {
		return err
	}
	if bearer == "" {
		return fmt.Errorf("bearer token is required")
	}

	botToken, err := promptSecret("Telegram bot token: ")
	if err != nil {
		return err
	}
	if botToken == "" {
		return fmt.Errorf("bot token is required")
	}

	fmt.Print("Telegram chat ID (optional, press Enter to skip): ")
	chatID, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read chat ID: %w", err)
	}
	chatID = strings.TrimSpace(chatID)

	creds := &auth.Credentials{
		Profile:          auth.DefaultProfile,
		TwitterBearer:    bearer,
		TelegramBotToken: botToken,
		TelegramChatID:   chatID,
	}

	if err := manager.Store(creds); err != nil {
		return err
	}

	fmt.Println("Credentials stored securely.")
	return nil
}

// runLogout removes the stored credentials
func runLogout() error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential storage: %w", err)
	}

	if err := manager.Delete(auth.DefaultProfile); err != nil {
		return err
	}

	fmt.Println("Credentials removed.")
	return nil
}

// promptSecret reads a value without echoing it to the terminal
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(value)), nil
}
