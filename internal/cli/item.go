package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/mq"
	"github.com/shaiso/Dispatch/internal/queue"
)

// NewItemCmd создаёт группу команд для управления work items.
//
// publisherFn может возвращать nil — тогда события item.enqueued не
// публикуются и координатор подхватит item через polling.
func NewItemCmd(queueFn func() (queue.Queue, error), publisherFn func() *mq.Publisher, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage work items",
	}

	cmd.AddCommand(
		newItemEnqueueCmd(queueFn, publisherFn, outputFn),
		newItemPeekCmd(queueFn, outputFn),
		newItemPendingCmd(queueFn, outputFn),
	)

	return cmd
}

func newItemEnqueueCmd(queueFn func() (queue.Queue, error), publisherFn func() *mq.Publisher, outputFn func() *Output) *cobra.Command {
	var (
		itemType   string
		priority   int
		capability string
		preferred  string
		inputJSON  string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queueFn()
			if err != nil {
				return err
			}
			out := outputFn()

			item := &domain.WorkItem{
				Type:               itemType,
				Priority:           priority,
				RequiredCapability: capability,
				PreferredWorkerID:  preferred,
				Timeout:            timeout,
			}

			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &item.Input); err != nil {
					return fmt.Errorf("parse --input: %w", err)
				}
			}

			ctx := cmd.Context()
			if err := q.Enqueue(ctx, item); err != nil {
				return err
			}

			// Событие необязательно: без него item подхватит polling
			if pub := publisherFn(); pub != nil {
				err := pub.PublishItemEnqueued(ctx, mq.ItemEnqueuedPayload{
					ItemID:   item.ID,
					Type:     item.Type,
					Priority: item.Priority,
				})
				if err != nil {
					out.Error(fmt.Sprintf("item enqueued, but event not published: %v", err))
				}
			}

			out.Success(fmt.Sprintf("Item enqueued: %s", item.ID))
			out.Print(
				[]string{"ID", "TYPE", "PRIORITY", "CAPABILITY", "PREFERRED"},
				[][]string{{item.ID, item.Type, strconv.Itoa(item.Priority), item.RequiredCapability, item.PreferredWorkerID}},
				item,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&itemType, "type", "", "Item type (required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Item priority (higher is dispatched first)")
	cmd.Flags().StringVar(&capability, "capability", "", "Required worker capability")
	cmd.Flags().StringVar(&preferred, "preferred", "", "Preferred worker ID (pins the item)")
	cmd.Flags().StringVar(&inputJSON, "input", "", "Item input as a JSON object")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Execution timeout hint (e.g. 30s)")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newItemPeekCmd(queueFn func() (queue.Queue, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Show the next pending item without claiming it",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queueFn()
			if err != nil {
				return err
			}
			out := outputFn()

			item, err := q.Peek(cmd.Context())
			if err != nil {
				return err
			}
			if item == nil {
				out.Success("Queue is empty")
				return nil
			}

			out.Print(
				[]string{"ID", "TYPE", "PRIORITY", "CAPABILITY", "CREATED"},
				[][]string{{item.ID, item.Type, strconv.Itoa(item.Priority), item.RequiredCapability, item.CreatedAt.Format(time.RFC3339)}},
				item,
			)
			return nil
		},
	}
}

func newItemPendingCmd(queueFn func() (queue.Queue, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show the number of pending items",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queueFn()
			if err != nil {
				return err
			}
			out := outputFn()

			count, err := q.PendingCount(cmd.Context())
			if err != nil {
				return err
			}

			out.Print(
				[]string{"PENDING"},
				[][]string{{strconv.Itoa(count)}},
				map[string]int{"pending": count},
			)
			return nil
		},
	}
}
