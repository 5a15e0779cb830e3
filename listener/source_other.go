//go:build !linux

package listener

import "errors"

var ErrLiveCaptureUnsupported = errors.New("live capture is only supported on linux")

func NewPacketSourceLive(device string) (PacketSource, error) {
	return nil, ErrLiveCaptureUnsupported
}
