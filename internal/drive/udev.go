package drive

import (
	"context"
	"fmt"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
)

// opticalDeviceRule matches the uevent environment of sr block devices as
// exposed under /sys/devices.
func opticalDeviceRule() netlink.Matcher {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"DEVTYPE": "disk",
			"DEVNAME": "^sr[0-9]+$",
		},
	})
	return rules
}

// crawlOpticalDevices walks the udev device database and returns the device
// paths of every optical drive currently known to the kernel.
func crawlOpticalDevices(ctx context.Context) ([]string, error) {
	queue := make(chan crawler.Device)
	errs := make(chan error, 1)

	quit := crawler.ExistingDevices(queue, errs, opticalDeviceRule())
	return collectCrawled(ctx, queue, errs, quit)
}

// collectCrawled consumes the crawl queue until the crawler closes it. Early
// returns go through stopCrawler so the crawl goroutine is never left blocked
// on an unconsumed send.
func collectCrawled(ctx context.Context, queue chan crawler.Device, errs chan error, quit chan struct{}) ([]string, error) {
	var devices []string
	for {
		select {
		case <-ctx.Done():
			stopCrawler(queue, errs, quit)
			return devices, ctx.Err()
		case device, more := <-queue:
			if !more {
				return devices, nil
			}
			if name := device.Env["DEVNAME"]; name != "" {
				devices = append(devices, "/dev/"+name)
			}
		case err := <-errs:
			if err != nil {
				stopCrawler(queue, errs, quit)
				return devices, fmt.Errorf("crawl udev devices: %w", err)
			}
		}
	}
}

// stopCrawler closes the crawler's quit channel and consumes both channels
// until the crawl goroutine closes the queue.
func stopCrawler(queue chan crawler.Device, errs chan error, quit chan struct{}) {
	close(quit)
	for {
		select {
		case _, more := <-queue:
			if !more {
				return
			}
		case <-errs:
		}
	}
}
