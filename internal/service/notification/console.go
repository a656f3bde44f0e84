package notification

import (
	"context"
	"fmt"

	"github.com/KNICEX/price-sentinel/internal/service/evaluator"
)

var _ Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier prints events to stdout, used when no telegram token
// is configured.
type ConsoleNotifier struct {
}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (n *ConsoleNotifier) Notify(ctx context.Context, event evaluator.Event) error {
	fmt.Println(FormatEvent(event))
	return nil
}
