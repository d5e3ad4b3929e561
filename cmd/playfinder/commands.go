package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bcnelson/playfinder/internal/cache"
	"github.com/bcnelson/playfinder/internal/storage"
)

func handleInit(args []string) {
	if wantsHelp(args) {
		fmt.Printf(`Initialize Playfinder

USAGE:
    playfinder init [OPTIONS]

DESCRIPTION:
    Creates the configuration file (with a fresh token secret) and the
    database. This should be run once after installation.

OPTIONS:
    --force              Force initialization even if config exists
    --db-path <path>     Custom database path
    --help, -h           Show this help

EXAMPLES:
    playfinder init
    playfinder init --force
    playfinder init --db-path ./playfinder.db
`)
		return
	}

	executeInit(args)
}

func executeInit(args []string) {
	force := false
	dbPath := ""

	for i, arg := range args {
		switch arg {
		case "--force":
			force = true
		case "--db-path":
			if i+1 < len(args) {
				dbPath = args[i+1]
			}
		}
	}

	configPath := getConfigPath()
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Already initialized at %s\n", configPath)
			fmt.Println("Use --force to reinitialize")
			return
		}
	}

	config, err := LoadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}

	if dbPath != "" {
		config.Database.Path = expandPath(dbPath)
	}
	if config.Auth.JWTSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			fail("%v", err)
		}
		config.Auth.JWTSecret = secret
	}

	if err := ValidateConfig(config); err != nil {
		fail("invalid config: %v", err)
	}
	if err := SaveConfig(config); err != nil {
		fail("saving config: %v", err)
	}

	db, err := InitDatabase(config.Database.Path)
	if err != nil {
		fail("initializing database: %v", err)
	}
	defer db.Close()

	formatter := NewFormatter(globalConfig.Format)
	fmt.Print(formatter.FormatSuccess("Configuration created: " + configPath))
	fmt.Print(formatter.FormatSuccess("Database created: " + config.Database.Path))
	if globalConfig.Format == "human" {
		fmt.Println("\nNext steps:")
		fmt.Println("1. Create an administrator: playfinder admin create-user --email you@example.com --admin")
		fmt.Println("2. Import activities: playfinder activity import ./activities.json")
		fmt.Println("3. Start the server: playfinder serve")
	}
}

func handleDoctorCommand(args []string) {
	if wantsHelp(args) {
		fmt.Printf(`System Health Check

USAGE:
    playfinder doctor [OPTIONS]

DESCRIPTION:
    Checks configuration, database connectivity, migrations, the Redis
    geo index and whether the API server is listening.

OPTIONS:
    --fix               Attempt to fix common issues
    --help, -h          Show this help

EXAMPLES:
    playfinder doctor
    playfinder doctor --fix
`)
		return
	}

	executeDoctor(args)
}

func executeDoctor(args []string) {
	fix := false
	for _, arg := range args {
		if arg == "--fix" {
			fix = true
		}
	}

	fmt.Println("Playfinder System Health Check")
	fmt.Println("==============================")

	issues := 0
	check := func(name string, err error) bool {
		if err != nil {
			fmt.Printf("✗ %s: FAILED (%v)\n", name, err)
			issues++
			return false
		}
		fmt.Printf("✓ %s: OK\n", name)
		return true
	}

	config, err := LoadConfig()
	if err == nil {
		err = ValidateConfig(config)
	}
	if !check("Configuration file", err) && fix {
		fmt.Println("  Attempting to create default configuration...")
		config = GetDefaultConfig()
		if secret, err := generateSecret(); err == nil {
			config.Auth.JWTSecret = secret
		}
		if err := SaveConfig(config); err != nil {
			fmt.Printf("  Failed to create config: %v\n", err)
			config = nil
		} else {
			fmt.Println("  ✓ Default configuration created")
		}
	}

	if config == nil {
		printHealthSummary(issues, fix)
		return
	}

	if config.Auth.JWTSecret == "" {
		fmt.Println("✗ Token secret: NOT SET (run 'playfinder init --force')")
		issues++
	} else {
		fmt.Println("✓ Token secret: OK")
	}

	db, err := InitDatabase(config.Database.Path)
	if check("Database connection", err) {
		if version, err := db.GetVersion(); err == nil {
			fmt.Printf("  SQLite %s at %s\n", version, db.Path())
		}
		check("Database health", db.Health())
		if statuses, err := storage.NewMigrator(db).Status(); check("Migrations", err) {
			pending := 0
			for _, s := range statuses {
				if !s.Applied {
					pending++
				}
			}
			if pending > 0 {
				fmt.Printf("  %d migration(s) pending\n", pending)
			}
		}
		db.Close()
	}

	testFile := filepath.Join(filepath.Dir(config.Database.Path), ".write_test")
	if check("Write permissions", os.WriteFile(testFile, []byte("test"), 0644)) {
		os.Remove(testFile)
	}

	if config.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		client, err := cache.NewGeoRedisClient(ctx, cache.Options{
			Address:  config.Redis.Address,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		cancel()
		if check("Redis geo index", err) {
			client.Close()
		}
	} else {
		fmt.Println("○ Redis geo index: disabled (database bounding boxes are used)")
	}

	if err := checkAPIServer(config.Server.Host, config.Server.Port); err != nil {
		fmt.Printf("○ API server: NOT RUNNING (%v)\n", err)
		fmt.Printf("  Start with: playfinder serve\n")
	} else {
		fmt.Println("✓ API server: OK")
	}

	printHealthSummary(issues, fix)
}

func printHealthSummary(issues int, fix bool) {
	fmt.Printf("\nSystem Health: ")
	if issues == 0 {
		fmt.Println("✓ All checks passed")
		return
	}
	fmt.Printf("✗ %d issue(s) found\n", issues)
	if !fix {
		fmt.Println("Run with --fix to attempt automatic repairs")
	}
}

func checkAPIServer(host string, port int) error {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), time.Second)
	if err != nil {
		return err
	}
	return conn.Close()
}

func handleMigrateCommand(args []string) {
	if wantsHelp(args) {
		fmt.Printf(`Database Migration Management

USAGE:
    playfinder migrate <SUBCOMMAND>

SUBCOMMANDS:
    up                  Apply pending migrations
    down                Roll back the most recent migration
    status              Show migration status

OPTIONS:
    --help, -h          Show this help

EXAMPLES:
    playfinder migrate up
    playfinder migrate down
    playfinder --format table migrate status
`)
		return
	}

	executeMigrate(args)
}

func executeMigrate(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: migrate requires a subcommand")
		fmt.Println("Run 'playfinder migrate --help' for usage")
		os.Exit(1)
	}

	config, err := LoadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}

	// migrations run explicitly here, so open without applying them
	db, err := storage.NewDB(storage.Config{Path: config.Database.Path})
	if err != nil {
		fail("opening database: %v", err)
	}
	defer db.Close()

	migrator := storage.NewMigrator(db)
	formatter := NewFormatter(globalConfig.Format)

	switch args[0] {
	case "up":
		applied, err := migrator.Up()
		if err != nil {
			fail("migration failed: %v", err)
		}
		if len(applied) == 0 {
			fmt.Print(formatter.FormatInfo("No pending migrations"))
			return
		}
		for _, m := range applied {
			fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Applied %03d %s", m.ID, m.Name)))
		}
	case "down":
		m, err := migrator.Down()
		if err != nil {
			fail("rollback failed: %v", err)
		}
		fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Rolled back %03d %s", m.ID, m.Name)))
	case "status":
		statuses, err := migrator.Status()
		if err != nil {
			fail("getting migration status: %v", err)
		}
		Output(formatter, statuses)
	default:
		fmt.Printf("Unknown migrate subcommand: %s\n", args[0])
		os.Exit(1)
	}
}
