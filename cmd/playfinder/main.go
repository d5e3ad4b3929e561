package main

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.1.0"

type GlobalConfig struct {
	Format     string // json, table, human
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

var globalConfig GlobalConfig

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 0 {
		showHelp()
		return
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "help", "--help", "-h":
		showHelp()
	case "version", "--version":
		showVersion()
	case "init":
		handleInit(commandArgs)
	case "serve":
		handleServeCommand(commandArgs)
	case "migrate":
		handleMigrateCommand(commandArgs)
	case "doctor":
		handleDoctorCommand(commandArgs)
	case "activity":
		handleActivityCommand(commandArgs)
	case "category":
		handleCategoryCommand(commandArgs)
	case "admin":
		handleAdminCommand(commandArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fmt.Fprintf(os.Stderr, "Run 'playfinder help' for usage information.\n")
		os.Exit(1)
	}
}

// parseGlobalFlags consumes global flags up to the command name. Everything
// from the command on is left for the command itself.
func parseGlobalFlags(args []string) ([]string, error) {
	globalConfig.Format = "human"

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--format" && i+1 < len(args):
			if err := setFormat(args[i+1]); err != nil {
				return nil, err
			}
			i++
		case strings.HasPrefix(arg, "--format="):
			if err := setFormat(strings.TrimPrefix(arg, "--format=")); err != nil {
				return nil, err
			}
		case arg == "--config" && i+1 < len(args):
			globalConfig.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			globalConfig.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--verbose" || arg == "-v":
			globalConfig.Verbose = true
		case arg == "--no-color":
			globalConfig.NoColor = true
		case arg == "--help" || arg == "-h" || arg == "--version":
			return args[i:], nil
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown global flag: %s", arg)
		default:
			return args[i:], nil
		}
	}

	return nil, nil
}

func setFormat(format string) error {
	if format != "json" && format != "table" && format != "human" {
		return fmt.Errorf("invalid format: %s (must be json, table, or human)", format)
	}
	globalConfig.Format = format
	return nil
}

func wantsHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "--help" || args[0] == "-h")
}

func showHelp() {
	fmt.Printf(`Playfinder - Family Activity Finder

USAGE:
    playfinder [GLOBAL OPTIONS] <COMMAND> [OPTIONS]

VERSION:
    %s

GLOBAL OPTIONS:
    --format <format>    Output format: json, table, human (default: human)
    --config <path>      Config file path (default: ~/.playfinder/config.yaml)
    --verbose, -v        Enable verbose output
    --no-color           Disable colored output
    --help, -h           Show help
    --version            Show version

COMMANDS:
    init                 Initialize database and configuration
    serve                Start the API server
    migrate              Run database migrations
    doctor               Check system health and configuration

    activity             Browse, search and import activities
    category             Category management commands
    admin                Administrative commands

EXAMPLES:
    # Initialize the system
    playfinder init

    # Import venues and events
    playfinder activity import ./activities.json

    # Free outdoor activities within 5km
    playfinder activity nearby --lat 52.0907 --lng 5.1214 --max-distance 5 --outdoor --free

    # Create an administrator
    playfinder admin create-user --email admin@example.com --admin

    # Start the server
    playfinder serve

Use 'playfinder <command> --help' for more information about a specific command.
`, Version)
}

func showVersion() {
	fmt.Printf("playfinder version %s\n", Version)
}

func fail(format string, args ...interface{}) {
	fmt.Fprint(os.Stderr, NewFormatter(globalConfig.Format).FormatError(fmt.Errorf(format, args...)))
	os.Exit(1)
}
