package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mango-odm/mango"
	"github.com/spf13/cobra"
)

var (
	migrateConfig     string
	migrateURI        string
	migrateDB         string
	migrateDryRun     bool
	migrateDropExtras bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate database indexes to match registered schemas",
	Long:  "Compare registered model schemas against the live database and apply index changes.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateConfig, "config", "", "Path to a YAML config file (uri, database)")
	migrateCmd.Flags().StringVar(&migrateURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "MongoDB database name")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Show planned changes without applying them")
	migrateCmd.Flags().BoolVar(&migrateDropExtras, "drop-extras", false, "Drop indexes not defined in schemas")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	uri, dbName, err := resolveConn(migrateConfig, migrateURI, migrateDB,
		cmd.Flags().Changed("uri"), cmd.Flags().Changed("db"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := mango.Connect(ctx, uri, dbName)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	schemas := mango.GetAll()
	if len(schemas) == 0 {
		fmt.Println("No models registered. Import your model packages to register them.")
		return nil
	}

	plan, err := mango.PlanMigration(ctx, db, schemas)
	if err != nil {
		return err
	}

	fmt.Printf("Migration Plan for %s\n", dbName)
	fmt.Println(strings.Repeat("=", len("Migration Plan for ")+len(dbName)))
	fmt.Println()

	// Group actions by collection
	collectionActions := make(map[string][]mango.MigrationAction)
	collectionOrder := []string{}
	for _, schema := range schemas {
		collectionOrder = append(collectionOrder, schema.Collection)
	}
	for _, action := range plan.Actions {
		collectionActions[action.Collection] = append(collectionActions[action.Collection], action)
	}

	createCount := 0
	dropCount := 0
	warnCount := 0

	for _, collName := range collectionOrder {
		actions := collectionActions[collName]
		fmt.Printf("%s:\n", collName)
		if len(actions) == 0 {
			fmt.Println("  (no changes)")
		} else {
			for _, action := range actions {
				switch action.Type {
				case mango.ActionCreateIndex:
					createCount++
					fmt.Printf("  + %s\n", action.Description)
				case mango.ActionDropIndex:
					dropCount++
					fmt.Printf("  - %s\n", action.Description)
				case mango.ActionFieldDrift:
					warnCount++
					fmt.Printf("  ! %s\n", action.Description)
				}
			}
		}
		fmt.Println()
	}

	fmt.Printf("Summary: %d to create, %d to drop, %d warning(s)\n", createCount, dropCount, warnCount)

	if migrateDryRun {
		fmt.Println("Run without --dry-run to apply.")
		return nil
	}

	// Execute
	opts := mango.MigrateOptions{
		DryRun:     false,
		DropExtras: migrateDropExtras,
	}
	result, err := mango.ExecuteMigration(ctx, db, plan, opts)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Executed: %d, Skipped: %d\n", result.Executed, result.Skipped)

	for _, w := range result.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("  x %s\n", e)
	}

	return nil
}
