//go:build linux

package devices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"

	"cutline/internal/logging"
)

type udevEnumerator struct {
	logger *slog.Logger
}

// New returns the udev-backed enumerator.
func New(logger *slog.Logger) Enumerator {
	return &udevEnumerator{logger: logging.NewComponentLogger(logger, "devices")}
}

// List crawls /sys/devices for capture nodes.
func (u *udevEnumerator) List(ctx context.Context) ([]Device, error) {
	queue := make(chan crawler.Device)
	errs := make(chan error, 1)
	quit := crawler.ExistingDevices(queue, errs, matcher(nil))

	var devs []Device
	for {
		select {
		case <-ctx.Done():
			close(quit)
			return nil, ctx.Err()
		case err := <-errs:
			close(quit)
			return nil, fmt.Errorf("crawl devices: %w", err)
		case d, ok := <-queue:
			if !ok {
				Sort(devs)
				return devs, nil
			}
			if dev, ok := FromEnv(d.KObj, d.Env); ok {
				devs = append(devs, dev)
			}
		}
	}
}

// Watch reports capture devices being plugged and unplugged until ctx ends.
func (u *udevEnumerator) Watch(ctx context.Context, fn func(Event)) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect netlink: %w", err)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	action := "add|remove"
	monitorQuit := conn.Monitor(queue, errs, matcher(&action))
	u.logger.Info("device watch started", logging.String(logging.FieldEventType, "device_watch_started"))

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return nil
		case uevent := <-queue:
			dev, ok := FromEnv(uevent.KObj, uevent.Env)
			if !ok {
				continue
			}
			u.logger.Debug("capture device event",
				logging.String("action", string(uevent.Action)),
				logging.String("device", dev.Path),
			)
			if fn != nil {
				fn(Event{Action: string(uevent.Action), Device: dev})
			}
		case err := <-errs:
			u.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "device changes may be missed"),
			)
		}
	}
}

// matcher selects video4linux and sound nodes; FromEnv narrows to capture.
// A nil action matches any action.
func matcher(action *string) netlink.Matcher {
	rules := &netlink.RuleDefinitions{}
	for _, subsystem := range []string{"video4linux", "sound"} {
		rules.AddRule(netlink.RuleDefinition{Action: action, Env: map[string]string{"SUBSYSTEM": subsystem}})
	}
	return rules
}
