//go:build !linux

package devices

import (
	"context"
	"log/slog"
)

type unsupported struct{}

// New returns an enumerator that reports ErrUnsupported.
func New(*slog.Logger) Enumerator { return unsupported{} }

func (unsupported) List(context.Context) ([]Device, error) { return nil, ErrUnsupported }

func (unsupported) Watch(context.Context, func(Event)) error { return ErrUnsupported }
