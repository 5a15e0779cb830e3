package listener

import (
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

type PacketSource interface {
	Packets() chan gopacket.Packet
}

var _ PacketSource = (*gopacket.PacketSource)(nil)

// NewPacketSourceFile replays a pcap capture. The channel closes when the file is drained.
func NewPacketSourceFile(fileName string) (PacketSource, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read pcap header of %s: %w", fileName, err)
	}
	return gopacket.NewPacketSource(r, r.LinkType()), nil
}
