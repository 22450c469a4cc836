package pixoo

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// DiscoveredDevice represents a found Pixoo device.
type DiscoveredDevice struct {
	Name string
	IP   string
}

// ProgressFunc is called during scanning to report progress.
type ProgressFunc func(current, total int)

// ScanOptions tunes a subnet scan. Zero values select defaults.
type ScanOptions struct {
	Subnet      string // first three octets, e.g. "192.168.1"; detected when empty
	Port        int
	BatchSize   int
	HostTimeout time.Duration
	OnProgress  ProgressFunc
}

func (o *ScanOptions) setDefaults() {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.HostTimeout <= 0 {
		o.HostTimeout = 500 * time.Millisecond
	}
}

// ScanForDevices scans a /24 subnet for Pixoo devices.
func ScanForDevices(ctx context.Context, opts ScanOptions) ([]DiscoveredDevice, error) {
	opts.setDefaults()

	subnet := opts.Subnet
	if subnet == "" {
		detected, err := getLocalSubnet()
		if err != nil {
			return nil, err
		}
		subnet = detected
	}

	var devices []DiscoveredDevice
	var mu sync.Mutex
	var wg sync.WaitGroup

	total := 254

	for start := 1; start <= total; start += opts.BatchSize {
		end := min(start+opts.BatchSize-1, total)

		for i := start; i <= end; i++ {
			wg.Add(1)
			go func(ip string) {
				defer wg.Done()

				device := identifyPixoo(ctx, ip, opts.Port, opts.HostTimeout)
				if device != nil {
					mu.Lock()
					devices = append(devices, *device)
					mu.Unlock()
				}
			}(fmt.Sprintf("%s.%d", subnet, i))
		}

		wg.Wait()

		if opts.OnProgress != nil {
			opts.OnProgress(end, total)
		}

		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}
	}

	return devices, nil
}

// getLocalSubnet returns the local subnet (e.g., "192.168.1").
func getLocalSubnet() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to get network interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if subnet, ok := subnetOf(addr); ok {
				return subnet, nil
			}
		}
	}

	return "", fmt.Errorf("could not determine local network")
}

// subnetOf returns the first three octets of a non-loopback IPv4 address.
func subnetOf(addr net.Addr) (string, bool) {
	ipNet, ok := addr.(*net.IPNet)
	if !ok {
		return "", false
	}
	ip := ipNet.IP.To4()
	if ip == nil || ip.IsLoopback() {
		return "", false
	}
	return fmt.Sprintf("%d.%d.%d", ip[0], ip[1], ip[2]), true
}

// identifyPixoo checks if an IP hosts a Pixoo device.
func identifyPixoo(ctx context.Context, ip string, port int, timeout time.Duration) *DiscoveredDevice {
	client := NewClientWithPort(ip, port)
	client.HTTPClient.Timeout = timeout

	hostCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.sendCommand(hostCtx, CommandGetIndex, PixooCommand{Command: CommandGetIndex}); err != nil {
		return nil
	}

	return &DiscoveredDevice{
		Name: "Pixoo-" + ip,
		IP:   ip,
	}
}
