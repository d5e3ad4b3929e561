package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

func handleAdminCommand(args []string) {
	if len(args) == 0 || wantsHelp(args) {
		fmt.Printf(`Administrative Commands

USAGE:
    playfinder admin <SUBCOMMAND> [OPTIONS]

SUBCOMMANDS:
    create-user         Create a user (prompts for the password)

OPTIONS:
    --email <email>     Email address
    --name <name>       Display name
    --admin             Grant administrator access
    --help, -h          Show this help

EXAMPLES:
    playfinder admin create-user --email admin@example.com --name Admin --admin
`)
		return
	}

	switch args[0] {
	case "create-user":
		executeCreateUser(parseFlags(args[1:], "admin"))
	default:
		fmt.Printf("Unknown admin subcommand: %s\n", args[0])
		fmt.Println("Run 'playfinder admin --help' for usage")
		os.Exit(1)
	}
}

func executeCreateUser(f commandFlags) {
	reader := bufio.NewReader(os.Stdin)

	email := f.String("email")
	if email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if email == "" {
		fail("email cannot be empty")
	}

	password, err := readPassword(reader)
	if err != nil {
		fail("%v", err)
	}

	a := mustOpenApp(appOptions{})
	defer a.Close()

	user, err := a.authService().CreateUser(context.Background(), email, f.String("name"), password, f.Bool("admin"))
	if err != nil {
		fail("creating user: %v", err)
	}

	Output(NewFormatter(globalConfig.Format), *user)
}

// readPassword prompts twice without echo. Piped input is read as a single
// line.
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}
