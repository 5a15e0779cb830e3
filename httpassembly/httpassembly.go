package httpassembly

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/reassembly"
)

// HttpAssembler reassembles TCP connections and hands every HTTP request/response pair
// found on them to the streams its factory creates. It is not safe for concurrent use.
type HttpAssembler struct {
	pool      *reassembly.StreamPool
	assembler *reassembly.Assembler
}

func NewAssembler(factory HttpStreamFactory) *HttpAssembler {
	p := reassembly.NewStreamPool(&factoryWrapper{wrap: factory})
	a := reassembly.NewAssembler(p)
	return &HttpAssembler{pool: p, assembler: a}
}

type assemblyContext struct {
	CaptureInfo gopacket.CaptureInfo
}

func (c *assemblyContext) GetCaptureInfo() gopacket.CaptureInfo {
	return c.CaptureInfo
}

// Assemble ignores packets that carry no TCP segment.
func (a *HttpAssembler) Assemble(p gopacket.Packet) {
	tcp, ok := p.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if !ok || p.NetworkLayer() == nil {
		return
	}

	c := assemblyContext{CaptureInfo: p.Metadata().CaptureInfo}
	a.assembler.AssembleWithContext(p.NetworkLayer().NetworkFlow(), tcp, &c)
}

// FlushOlderThan completes connections that saw no packet since t.
func (a *HttpAssembler) FlushOlderThan(t time.Time) (flushed, closed int) {
	return a.assembler.FlushCloseOlderThan(t)
}

// FlushAll completes every open connection.
func (a *HttpAssembler) FlushAll() int {
	return a.assembler.FlushAll()
}

type factoryWrapper struct {
	wrap HttpStreamFactory
}

func (f *factoryWrapper) New(netFlow, tcpFlow gopacket.Flow, tcp *layers.TCP, ac reassembly.AssemblerContext) reassembly.Stream {
	return &streamWrapper{pairer: pairer{stream: f.wrap.New()}}
}

type streamWrapper struct {
	pairer pairer
}

func (s *streamWrapper) Accept(tcp *layers.TCP, ci gopacket.CaptureInfo, dir reassembly.TCPFlowDirection, nextSeq reassembly.Sequence, start *bool, ac reassembly.AssemblerContext) bool {
	// captures often begin mid-connection, so any segment may start a half stream
	*start = true
	return true
}

func (s *streamWrapper) ReassembledSG(sg reassembly.ScatterGather, ac reassembly.AssemblerContext) {
	l, _ := sg.Lengths()
	if l == 0 {
		return
	}
	dir, _, _, _ := sg.Info()
	s.pairer.add(dir == reassembly.TCPDirClientToServer, sg.Fetch(l))
}

func (s *streamWrapper) ReassemblyComplete(ac reassembly.AssemblerContext) bool {
	s.pairer.flush()
	return true
}
