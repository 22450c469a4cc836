package pixoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// DefaultPort is the default Pixoo HTTP API port.
const DefaultPort = 80

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 5 * time.Second

// Client is an HTTP client for communicating with Pixoo devices.
type Client struct {
	IP         string
	Port       int
	HTTPClient *http.Client
	testURL    string // For testing with httptest

	mu     sync.Mutex
	nextID int // 0 means the device counter has not been reset yet
}

// NewClient creates a new Pixoo client with default settings.
func NewClient(ip string) *Client {
	return NewClientWithPort(ip, DefaultPort)
}

// NewClientWithPort creates a new Pixoo client with a custom port.
func NewClientWithPort(ip string, port int) *Client {
	return &Client{
		IP:   ip,
		Port: port,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithTimeout sets the per-request HTTP timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.HTTPClient.Timeout = d
	}
	return c
}

// Endpoint returns the full API endpoint URL.
func (c *Client) Endpoint() string {
	if c.testURL != "" {
		return c.testURL
	}
	return fmt.Sprintf("http://%s:%d/post", c.IP, c.Port)
}

// post sends a command and returns the raw reply body.
func (c *Client) post(ctx context.Context, command any) ([]byte, error) {
	data, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// sendCommand posts a command and checks the device error_code.
func (c *Client) sendCommand(ctx context.Context, name string, command any) ([]byte, error) {
	body, err := c.post(ctx, command)
	if err != nil {
		return nil, err
	}
	if err := ParseResponse(name, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ResetGifID resets the device picture counter.
func (c *Client) ResetGifID(ctx context.Context) error {
	_, err := c.sendCommand(ctx, CommandResetGifID, CreateResetGifIDCommand())
	return err
}

// SendFrame sends a frame as a new single-frame picture. The first call, and
// every call after MaxPicID frames, resets the device counter.
func (c *Client) SendFrame(ctx context.Context, frame *domain.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextID == 0 || c.nextID > MaxPicID {
		if err := c.ResetGifID(ctx); err != nil {
			return err
		}
		c.nextID = 1
	}

	cmd := CreatePixooFrameCommand(frame, &FrameCommandOptions{PicID: c.nextID})
	if _, err := c.sendCommand(ctx, CommandSendGif, cmd); err != nil {
		return err
	}
	c.nextID++
	return nil
}

// GetDeviceTime queries the device time.
func (c *Client) GetDeviceTime(ctx context.Context) ([]byte, error) {
	return c.sendCommand(ctx, CommandGetDeviceTime, CreateDeviceTimeCommand())
}

// SetBrightness sets the display brightness (0-100).
func (c *Client) SetBrightness(ctx context.Context, brightness int) error {
	_, err := c.sendCommand(ctx, CommandSetBrightness, CreateBrightnessCommand(brightness))
	return err
}

// IsReachable checks if the device is reachable.
func (c *Client) IsReachable(ctx context.Context) bool {
	_, err := c.GetDeviceTime(ctx)
	return err == nil
}
