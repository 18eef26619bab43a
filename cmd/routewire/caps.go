package main

import (
	"context"
	"fmt"
	"io"

	"github.com/routewire/routewire/pkg/command"
	"github.com/routewire/routewire/pkg/engine"
	"github.com/routewire/routewire/pkg/store"
)

// consoleCaps satisfies engine.Capabilities for the CLI: navigation, dialogs
// and payments are printed, state mutations go to the local store, and every
// dialog resolves to a preconfigured choice.
type consoleCaps struct {
	out    io.Writer
	store  *store.Store
	choice engine.Choice
}

func (c *consoleCaps) Navigate(ctx context.Context, path string, replace bool) error {
	verb := "navigate"
	if replace {
		verb = "redirect"
	}
	fmt.Fprintf(c.out, "[%s] %s\n", verb, path)
	return nil
}

func (c *consoleCaps) PresentDialog(ctx context.Context, d engine.Dialog) (engine.Choice, error) {
	fmt.Fprintf(c.out, "[dialog:%s] %s", d.Type, d.Content)
	if d.Title != "" {
		fmt.Fprintf(c.out, " (title: %s)", d.Title)
	}
	fmt.Fprintln(c.out)

	if d.Type == command.DialogToast {
		return engine.ChoiceDismiss, nil
	}
	fmt.Fprintf(c.out, "[dialog:%s] answering %s\n", d.Type, c.choice)
	return c.choice, nil
}

func (c *consoleCaps) MutateState(dataType string, data interface{}, merge bool) error {
	return c.store.MutateState(dataType, data, merge)
}

func (c *consoleCaps) PerformPayment(ctx context.Context, info command.PaymentInfo) error {
	fmt.Fprintf(c.out, "[payment] order %s: %d %s via %s\n", info.OrderID, info.Amount, info.Currency, info.PaymentMethod)
	return nil
}

func (c *consoleCaps) Notify(ctx context.Context, message string) {
	fmt.Fprintf(c.out, "[notice] %s\n", message)
}
