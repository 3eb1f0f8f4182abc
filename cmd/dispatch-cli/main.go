// Dispatch CLI — инструмент командной строки для работы с очередью
// work items.
//
// Использование:
//
//	dispatch [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	item      Управление work items (enqueue, peek, pending)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Dispatch/internal/cli"
	"github.com/shaiso/Dispatch/internal/mq"
	"github.com/shaiso/Dispatch/internal/queue"
	"github.com/shaiso/Dispatch/internal/repo"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	logger := telemetry.SetupLogger()

	rootCmd := &cobra.Command{
		Use:           "dispatch",
		Short:         "Dispatch CLI — work item queue tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	queueFn := func() (queue.Queue, error) {
		dbPool, err := repo.NewPool(rootCmd.Context())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return repo.NewItemQueue(dbPool, nil), nil
	}

	// Publisher необязателен: без RabbitMQ события не публикуются,
	// координатор подхватит items через polling.
	publisherFn := func() *mq.Publisher {
		mqURL := os.Getenv("RABBITMQ_URL")
		if mqURL == "" {
			mqURL = mq.DefaultURL()
		}
		conn, err := mq.NewConnection(mqURL, logger)
		if err != nil {
			return nil
		}
		return mq.NewPublisher(conn, logger)
	}

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewItemCmd(queueFn, publisherFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
