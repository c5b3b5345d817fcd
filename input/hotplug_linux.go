// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: input/hotplug_linux.go
// Summary: Kernel uevent (netlink) hot-plug notifier for input and drm
//          devices.

package input

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/lumenwm/lumen/reactor"
)

// HotplugSource listens on the kobject uevent netlink group and surfaces
// add/change/remove notifications for the input and drm subsystems.
type HotplugSource struct {
	*reactor.Queue
	fd  int
	log *logrus.Entry
}

func OpenHotplug(log *logrus.Entry) (*HotplugSource, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("input: uevent socket: %w", err)
	}
	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("input: bind uevent socket: %w", err)
	}
	src := &HotplugSource{Queue: reactor.NewQueue("hotplug", nil), fd: fd, log: log}
	go src.pump()
	return src, nil
}

func (s *HotplugSource) pump() {
	buf := make([]byte, 4096)
	for {
		n, _, err := unix.Recvfrom(s.fd, buf, 0)
		if err != nil {
			return
		}
		if ev, ok := parseUevent(buf[:n]); ok {
			s.Push(ev)
		}
	}
}

// parseUevent decodes "action@devpath\0KEY=VALUE\0..." messages, keeping
// only the input and drm subsystems.
func parseUevent(raw []byte) (DeviceEvent, bool) {
	fields := strings.Split(string(raw), "\x00")
	if len(fields) == 0 {
		return DeviceEvent{}, false
	}
	header := fields[0]
	at := strings.IndexByte(header, '@')
	if at < 1 {
		return DeviceEvent{}, false
	}

	ev := DeviceEvent{Path: header[at+1:]}
	switch header[:at] {
	case "add":
		ev.Action = DeviceAdded
	case "change":
		ev.Action = DeviceChanged
	case "remove":
		ev.Action = DeviceRemoved
	default:
		return DeviceEvent{}, false
	}

	for _, field := range fields[1:] {
		if sub, ok := strings.CutPrefix(field, "SUBSYSTEM="); ok {
			ev.Subsystem = sub
		}
	}
	if ev.Subsystem != "input" && ev.Subsystem != "drm" {
		return DeviceEvent{}, false
	}
	return ev, true
}

func (s *HotplugSource) Close() error {
	_ = unix.Close(s.fd)
	return s.Queue.Close()
}
