package link

import (
	"time"

	"github.com/go-isis/isisd/adjacency"
	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/metrics"
)

// receiveIIH processes a decoded LAN IIH, per ISO 10589 §8.4.2.1: reject a
// Level 1 hello unless it carries exactly one Area Addresses TLV and lists
// one of our configured areas, otherwise update the adjacency and rerun DIS
// election if anything DIS-relevant changed.
func (lx *levelState) receiveIIH(srcMAC [6]byte, body []byte, tlvs []codec.RawTLV) error {
	if lx == nil {
		return nil
	}
	fixed, err := codec.DecodeIIHLANFixed(body)
	if err != nil {
		return err
	}

	var areas []codec.AreaAddress
	var neighbors [][6]byte
	areaTLVCount := 0
	for _, t := range tlvs {
		switch t.Type {
		case codec.TLVAreaAddresses:
			areaTLVCount++
			a, derr := codec.DecodeAreaAddresses(t.Value)
			if derr == nil {
				areas = append(areas, a...)
			}
		case codec.TLVISNeighbors:
			m, derr := codec.DecodeISNeighbors(t.Value)
			if derr == nil {
				neighbors = append(neighbors, m...)
			}
		}
	}

	if lx.lindex == 0 && (areaTLVCount != 1 || !lx.matchesConfiguredArea(areas)) {
		return nil
	}

	snap := adjacency.IIHSnapshot{
		SourceID:  fixed.SourceID,
		SNPA:      srcMAC,
		HoldTime:  fixed.HoldingTime,
		Priority:  fixed.Priority,
		LANID:     fixed.LANID,
		AreaAddrs: areas,
		Neighbors: neighbors,
	}
	if lx.adjDB.UpdateAdjacency(snap) {
		if !lx.link.cfg.IsP2P {
			lx.disElectionInfoChanged()
		}
		lx.ownGen.ScheduleRegen(time.Second)
	}
	return nil
}

func (lx *levelState) matchesConfiguredArea(areas []codec.AreaAddress) bool {
	for _, got := range areas {
		for _, want := range lx.link.cfg.AreaAddrs {
			if string(got) == string(want) {
				return true
			}
		}
	}
	return false
}

// checkAdjacency implements the shared prerequisite of ISO 10589
// §7.3.15.{1,2} steps 2,3,6: this level must be enabled on the circuit (it
// always is, by construction) and the sender must have an up adjacency.
func (lx *levelState) checkAdjacency(snpa [6]byte) bool {
	if lx.link.cfg.IsP2P {
		// No adjacency tracking is maintained for P2P circuits in this
		// implementation; accept update PDUs unconditionally.
		return true
	}
	return lx.adjDB.HasUpAdjacency(snpa)
}

// receiveLSP decodes and processes one LSP PDU, per ISO 10589 §7.3.15.1.
// pdu is the full PDU starting at the common header.
func (lx *levelState) receiveLSP(srcMAC [6]byte, pdu []byte, tlvs []codec.RawTLV) error {
	if lx == nil {
		return nil
	}
	if !lx.checkAdjacency(srcMAC) {
		return nil
	}

	body := pdu[codec.CommonHeaderLen:]
	fixed, err := codec.DecodeLSPFixed(body)
	if err != nil {
		return err
	}
	if fixed.RemainingLife > 0 && !codec.VerifyChecksum(pdu) {
		metrics.PDUsDropped.WithLabelValues(lx.link.cfg.IfName, "bad-checksum").Inc()
		return nil
	}

	ourSysID := lx.link.cfg.SystemID
	isOurs := func(f codec.LSPFixed) bool {
		return lx.process.OwnsPseudonode(f.LSPID.PseudonodeID())
	}
	lx.process.ReceiveLSP(lx.circuitID(), fixed, pdu, tlvs, ourSysID, isOurs)
	return nil
}

// receiveCSNP decodes and processes one CSNP PDU, per ISO 10589 §7.3.15.2.
func (lx *levelState) receiveCSNP(srcMAC [6]byte, body []byte, tlvs []codec.RawTLV) error {
	if lx == nil {
		return nil
	}
	if !lx.checkAdjacency(srcMAC) {
		return nil
	}
	fixed, err := codec.DecodeCSNPFixed(body)
	if err != nil {
		return err
	}
	var entries []codec.SNPEntry
	for _, t := range tlvs {
		if t.Type != codec.TLVSNPEntries {
			continue
		}
		e, derr := codec.DecodeSNPEntries(t.Value)
		if derr == nil {
			entries = append(entries, e...)
		}
	}
	lx.process.ReceiveCSNP(lx.circuitID(), fixed.StartLSPID, fixed.EndLSPID, entries)
	return nil
}

// receivePSNP decodes and processes one PSNP PDU, per ISO 10589 §7.3.15.2.
func (lx *levelState) receivePSNP(srcMAC [6]byte, tlvs []codec.RawTLV) error {
	if lx == nil {
		return nil
	}
	if !lx.checkAdjacency(srcMAC) {
		return nil
	}
	var entries []codec.SNPEntry
	for _, t := range tlvs {
		if t.Type != codec.TLVSNPEntries {
			continue
		}
		e, derr := codec.DecodeSNPEntries(t.Value)
		if derr == nil {
			entries = append(entries, e...)
		}
	}
	lx.process.ReceivePSNP(lx.circuitID(), entries)
	return nil
}

func (lx *levelState) circuitID() circuitKey {
	return circuitKey{ifname: lx.link.cfg.IfName, lindex: lx.lindex}
}
