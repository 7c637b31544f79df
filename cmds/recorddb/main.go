package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safing/recorddb/base/database"
	"github.com/safing/recorddb/base/database/storage"
	"github.com/safing/recorddb/base/log"
)

const customerTable = "customer"

// Customer is the record type managed by the tool.
type Customer struct {
	Identifier string `record:"identifier,primary"`
	Name       string `record:"name"`
}

type app struct {
	out io.Writer

	configFile       string
	dbType           string
	path             string
	connectionString string
	databaseName     string
	username         string
	password         string
	connectTimeout   time.Duration
	debug            bool
	logLevel         string

	db        storage.Interface
	customers *database.Table[Customer]
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:                "recorddb",
		Short:              "Manage the customer table of a record database",
		SilenceUsage:       true,
		PersistentPreRunE:  a.open,
		PersistentPostRunE: a.close,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "read the connection from the database section of a YAML file")
	flags.StringVar(&a.dbType, "type", storage.TypeSQLite, "database type: sqlite, mysql or mongo")
	flags.StringVar(&a.path, "path", "recorddb.sqlite", "sqlite database file")
	flags.StringVar(&a.connectionString, "connection", "", "connection string of the mysql or mongo server")
	flags.StringVar(&a.databaseName, "database", "", "mongo database name")
	flags.StringVar(&a.username, "username", "", "username to connect with")
	flags.StringVar(&a.password, "password", "", "password to connect with")
	flags.DurationVar(&a.connectTimeout, "connect-timeout", storage.DefaultConnectTimeout, "how long connecting may take")
	flags.BoolVar(&a.debug, "debug", false, "log every executed statement")
	flags.StringVar(&a.logLevel, "log", "warning", "log level: trace, debug, info, warning, error or critical")

	rootCmd.AddCommand(
		a.ensureCmd(),
		a.addCmd(),
		a.getCmd(),
		a.listCmd(),
		a.removeCmd(),
	)
	return rootCmd
}

func (a *app) builder(cmd *cobra.Command) (*database.Builder, error) {
	if a.configFile == "" {
		return database.NewBuilder().
			SetType(a.dbType).
			SetPath(a.path).
			SetConnectionString(a.connectionString).
			SetDatabaseName(a.databaseName).
			SetUsername(a.username).
			SetPassword(a.password).
			SetConnectTimeout(a.connectTimeout).
			SetDebug(a.debug), nil
	}

	cfg, err := database.LoadConfig(a.configFile)
	if err != nil {
		return nil, err
	}

	// Flags given on the command line take precedence.
	var path string
	if cmd.Flags().Changed("path") {
		path = a.path
	}
	b := database.NewBuilderFromConfig(cfg, path)
	if cmd.Flags().Changed("debug") {
		b.SetDebug(a.debug)
	}
	if cmd.Flags().Changed("connect-timeout") {
		b.SetConnectTimeout(a.connectTimeout)
	}
	return b, nil
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	if log.ParseLevel(a.logLevel) == 0 {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}
	log.Start(a.logLevel, cmd.ErrOrStderr())

	b, err := a.builder(cmd)
	if err != nil {
		return err
	}
	a.db, err = b.Build(cmd.Context())
	if err != nil {
		return err
	}
	if !a.db.IsEnabled() {
		return fmt.Errorf("database is unavailable: %w", a.db.Err())
	}

	a.customers, err = database.CreateTable[Customer](cmd.Context(), a.db, customerTable)
	return err
}

func (a *app) close(_ *cobra.Command, _ []string) error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// failed returns the error of a failed operation.
func (a *app) failed(operation string) error {
	if err := a.db.Err(); err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	return fmt.Errorf("failed to %s", operation)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
