//go:build linux

package listener

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// NewPacketSourceLive captures from device with an AF_PACKET socket.
func NewPacketSourceLive(device string) (PacketSource, error) {
	handle, err := pcapgo.NewEthernetHandle(device)
	if err != nil {
		return nil, err
	}
	return gopacket.NewPacketSource(handle, layers.LinkTypeEthernet), nil
}
