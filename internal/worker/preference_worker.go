package worker

import (
	"context"
	"errors"
	"fmt"

	"ledgerstats/internal/amqp"
	"ledgerstats/internal/core"
	"ledgerstats/internal/log"
)

// PreferenceStore persists preference values.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// PreferenceWorker applies preference messages from the broker to the
// local store.
type PreferenceWorker struct {
	store  PreferenceStore
	logger *log.Logger
}

func NewPreferenceWorker(store PreferenceStore, logger *log.Logger) *PreferenceWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &PreferenceWorker{store: store, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandlePreferenceMessage stores one preference. The newest message wins,
// matching the dashboard which overwrites the first bill date on every load.
func (w *PreferenceWorker) HandlePreferenceMessage(ctx context.Context, msg *amqp.PreferenceMessage) error {
	if msg == nil || msg.Key == "" {
		return errors.New("preference message without key")
	}

	w.logger.InfoContext(ctx, "Processing preference message",
		"key", msg.Key,
		"timestamp", msg.Timestamp)

	if err := w.store.Set(ctx, msg.Key, msg.Value); err != nil {
		return fmt.Errorf("set preference %q: %w", msg.Key, err)
	}

	w.logger.InfoContext(ctx, "Preference stored", "key", msg.Key)
	return nil
}

// StartupCheck logs the stored first bill date so operators can see the
// worker's starting state.
func (w *PreferenceWorker) StartupCheck(ctx context.Context) error {
	date, ok, err := w.store.Get(ctx, core.FirstBillDateKey)
	if err != nil {
		return fmt.Errorf("read first bill date: %w", err)
	}
	if !ok {
		w.logger.InfoContext(ctx, "No first bill date stored yet")
		return nil
	}
	w.logger.InfoContext(ctx, "Stored first bill date", log.FieldFirstBillDate, date)
	return nil
}
