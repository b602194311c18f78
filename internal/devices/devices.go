// Package devices enumerates video4linux capture devices and watches for
// their removal over udev netlink.
package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Device is one enumerated capture device node.
type Device struct {
	Path string // device node, e.g. /dev/video0
	Name string // sysfs card name, empty when unreadable
}

// Lister enumerates capture devices. The zero value scans the live system;
// tests point the roots at fixtures.
type Lister struct {
	DevDir string // defaults to /dev
	SysDir string // defaults to /sys/class/video4linux
}

func (l Lister) devDir() string {
	if l.DevDir != "" {
		return l.DevDir
	}
	return "/dev"
}

func (l Lister) sysDir() string {
	if l.SysDir != "" {
		return l.SysDir
	}
	return "/sys/class/video4linux"
}

// List returns the video capture nodes present on the system, ordered by
// device path. A host without any nodes yields an empty slice, not an error.
func (l Lister) List() ([]Device, error) {
	pattern := filepath.Join(l.devDir(), "video*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}

	devices := make([]Device, 0, len(matches))
	for _, path := range matches {
		base := filepath.Base(path)
		if !strings.HasPrefix(base, "video") || len(base) == len("video") {
			continue
		}
		devices = append(devices, Device{
			Path: path,
			Name: l.cardName(base),
		})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

// cardName reads the human-readable card name the kernel exposes in sysfs.
func (l Lister) cardName(node string) string {
	data, err := os.ReadFile(filepath.Join(l.sysDir(), node, "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
