package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bcnelson/playfinder/pkg/models"
)

func handleCategoryCommand(args []string) {
	if len(args) == 0 || wantsHelp(args) {
		fmt.Printf(`Category Commands

USAGE:
    playfinder category <SUBCOMMAND> [OPTIONS]

SUBCOMMANDS:
    list                List categories
    add <name>          Add a category
    delete <id|slug>    Delete a category (activities keep their other categories)

OPTIONS:
    --slug <slug>       Slug for add (default: derived from the name)
    --icon <icon>       Icon name for add
    --order <n>         Sort order for add
    --help, -h          Show this help

EXAMPLES:
    playfinder category add "Petting Zoos" --icon paw --order 3
    playfinder --format table category list
`)
		return
	}

	subcommand := args[0]
	f := parseFlags(args[1:])

	switch subcommand {
	case "list":
		executeCategoryList()
	case "add":
		executeCategoryAdd(f)
	case "delete":
		executeCategoryDelete(f)
	default:
		fmt.Printf("Unknown category subcommand: %s\n", subcommand)
		fmt.Println("Run 'playfinder category --help' for usage")
		os.Exit(1)
	}
}

func executeCategoryList() {
	a := mustOpenApp(appOptions{})
	defer a.Close()

	categories, err := a.categories.List(context.Background())
	if err != nil {
		fail("listing categories: %v", err)
	}
	Output(NewFormatter(globalConfig.Format), categories)
}

func executeCategoryAdd(f commandFlags) {
	name := strings.Join(f.positional, " ")
	if name == "" {
		fail("category add requires a name")
	}

	category, err := models.NewCategory(name, f.String("slug"))
	if err != nil {
		fail("%v", err)
	}
	category.Icon = f.String("icon")
	category.SortOrder = f.Int("order", 0)

	a := mustOpenApp(appOptions{})
	defer a.Close()

	if err := a.categories.Create(context.Background(), category); err != nil {
		fail("creating category: %v", err)
	}
	fmt.Print(NewFormatter(globalConfig.Format).FormatSuccess(fmt.Sprintf("Category %s created (%s)", category.Name, category.Slug)))
}

func executeCategoryDelete(f commandFlags) {
	if len(f.positional) == 0 {
		fail("category delete requires an id or slug")
	}

	a := mustOpenApp(appOptions{})
	defer a.Close()

	ctx := context.Background()
	category, err := a.categories.GetByID(ctx, f.positional[0])
	if err != nil {
		fail("finding category: %v", err)
	}
	if err := a.categories.Delete(ctx, category.ID); err != nil {
		fail("deleting category: %v", err)
	}
	fmt.Print(NewFormatter(globalConfig.Format).FormatSuccess(fmt.Sprintf("Category %s deleted", category.Name)))
}
