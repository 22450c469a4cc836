// Package pixoo implements the Pixoo64 protocol.
//
// The Pixoo64 has a local HTTP API at port 80.
// Endpoint: POST http://<ip>/post
//
// Frame format:
// - 64x64 pixels
// - RGB (3 bytes per pixel)
// - Base64 encoded
// - Total: 64 * 64 * 3 = 12,288 bytes raw, ~16KB base64
//
// The device caches animations by PicID. A stream of single-frame pictures
// must reset the id counter once and then use a fresh PicID for every frame,
// otherwise the device keeps showing the first picture.
package pixoo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jwulff/sunrise-go/internal/domain"
)

// Command names understood by the device.
const (
	CommandSendGif       = "Draw/SendHttpGif"
	CommandResetGifID    = "Draw/ResetHttpGifId"
	CommandSetBrightness = "Channel/SetBrightness"
	CommandGetDeviceTime = "Device/GetDeviceTime"
	CommandGetIndex      = "Channel/GetIndex"
)

// MaxPicID is the highest PicID before the device counter must be reset.
const MaxPicID = 1000

// PixooCommand represents a Pixoo API command without parameters.
type PixooCommand struct {
	Command string `json:"Command"`
}

// FrameCommand represents a Draw/SendHttpGif command.
type FrameCommand struct {
	Command   string `json:"Command"`
	PicNum    int    `json:"PicNum"`
	PicWidth  int    `json:"PicWidth"`
	PicOffset int    `json:"PicOffset"`
	PicID     int    `json:"PicID"`
	PicSpeed  int    `json:"PicSpeed"`
	PicData   string `json:"PicData"`
}

// BrightnessCommand represents a Channel/SetBrightness command.
type BrightnessCommand struct {
	Command    string `json:"Command"`
	Brightness int    `json:"Brightness"`
}

// SupportedSizes are the square panel edge lengths Pixoo devices accept.
var SupportedSizes = []int{16, 32, 64}

// IsSupportedSize reports whether a width x height frame can be sent to a Pixoo.
func IsSupportedSize(width, height int) bool {
	return width == height && slices.Contains(SupportedSizes, width)
}

// DefaultPicSpeed is the frame duration in ms of a single-frame picture.
const DefaultPicSpeed = 1000

// FrameCommandOptions configures frame command parameters.
type FrameCommandOptions struct {
	PicID int
}

// Response is the common envelope of every device reply.
type Response struct {
	ErrorCode int `json:"error_code"`
}

// DeviceError is returned when the device answers with a non-zero error_code.
type DeviceError struct {
	Command string
	Code    int
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("pixoo: %s failed with error_code %d", e.Command, e.Code)
}

// ParseResponse decodes a reply body and converts a non-zero error_code into a DeviceError.
// An empty body is treated as success; some firmware versions reply with nothing.
func ParseResponse(command string, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", command, err)
	}
	if resp.ErrorCode != 0 {
		return &DeviceError{Command: command, Code: resp.ErrorCode}
	}
	return nil
}

// EncodeFrameToBase64 encodes frame pixels to base64 for Pixoo API.
func EncodeFrameToBase64(frame *domain.Frame) string {
	return base64.StdEncoding.EncodeToString(frame.Pixels)
}

// CreatePixooFrameCommand creates a Draw/SendHttpGif command.
func CreatePixooFrameCommand(frame *domain.Frame, opts *FrameCommandOptions) FrameCommand {
	picID := 1
	if opts != nil && opts.PicID > 0 {
		picID = opts.PicID
	}

	return FrameCommand{
		Command:   CommandSendGif,
		PicNum:    1,
		PicWidth:  frame.Width,
		PicOffset: 0,
		PicID:     picID,
		PicSpeed:  DefaultPicSpeed,
		PicData:   EncodeFrameToBase64(frame),
	}
}

// CreateResetGifIDCommand creates a Draw/ResetHttpGifId command.
func CreateResetGifIDCommand() PixooCommand {
	return PixooCommand{Command: CommandResetGifID}
}

// CreateDeviceTimeCommand creates a Device/GetDeviceTime command.
func CreateDeviceTimeCommand() PixooCommand {
	return PixooCommand{Command: CommandGetDeviceTime}
}

// CreateBrightnessCommand creates a Channel/SetBrightness command.
func CreateBrightnessCommand(brightness int) BrightnessCommand {
	// Clamp to 0-100
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}

	return BrightnessCommand{
		Command:    CommandSetBrightness,
		Brightness: brightness,
	}
}
