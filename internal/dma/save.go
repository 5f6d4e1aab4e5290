package dma

import (
	"bytes"
	"encoding/gob"
)

// channelState mirrors Channel's exported register fields plus the
// unexported live-transfer counters snapshotted mid-run, copied into
// exported fields because gob only encodes exported fields.
type channelState struct {
	SrcCtrl AddrControl
	DstCtrl AddrControl
	Chunk   ChunkSize
	Trigger TriggerMode
	Repeat  bool
	IRQ     bool
	Enabled bool

	ReloadSrc   uint32
	ReloadDst   uint32
	ReloadCount uint16

	CurSrc   uint32
	CurDst   uint32
	CurCount uint16
}

// SaveState gob-encodes all four channels.
func (c *Controller) SaveState() []byte {
	var s [4]channelState
	for i, ch := range c.channels {
		s[i] = channelState{
			SrcCtrl: ch.SrcCtrl, DstCtrl: ch.DstCtrl, Chunk: ch.Chunk, Trigger: ch.Trigger,
			Repeat: ch.Repeat, IRQ: ch.IRQ, Enabled: ch.Enabled,
			ReloadSrc: ch.reloadSrc, ReloadDst: ch.reloadDst, ReloadCount: ch.reloadCount,
			CurSrc: ch.curSrc, CurDst: ch.curDst, CurCount: ch.curCount,
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil
	}
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (c *Controller) LoadState(data []byte) error {
	var s [4]channelState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	for i := range c.channels {
		cs := s[i]
		c.channels[i] = Channel{
			SrcCtrl: cs.SrcCtrl, DstCtrl: cs.DstCtrl, Chunk: cs.Chunk, Trigger: cs.Trigger,
			Repeat: cs.Repeat, IRQ: cs.IRQ, Enabled: cs.Enabled,
			reloadSrc: cs.ReloadSrc, reloadDst: cs.ReloadDst, reloadCount: cs.ReloadCount,
			curSrc: cs.CurSrc, curDst: cs.CurDst, curCount: cs.CurCount,
		}
	}
	return nil
}
