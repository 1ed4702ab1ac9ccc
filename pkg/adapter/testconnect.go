package adapter

import (
	"context"
	"log/slog"
)

// TestConnect validates connectivity before any schema work begins. On
// failure it appends a human-readable message to errs and returns false:
// the contract installers and the doctor command consume.
func TestConnect(ctx context.Context, cfg ConnConfig, errs *[]string) bool {
	a, err := New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		*errs = append(*errs, err.Error())
		return false
	}
	if err := a.Connect(ctx, cfg); err != nil {
		*errs = append(*errs, err.Error())
		return false
	}
	_ = a.Close()
	return true
}
