package codec

// TLV type codes carried in IS-IS PDUs, per spec §4.1.
const (
	TLVAreaAddresses       uint8 = 1
	TLVISReachNarrow       uint8 = 2
	TLVISNeighbors         uint8 = 6
	TLVPadding             uint8 = 8
	TLVSNPEntries          uint8 = 9
	TLVAuthentication      uint8 = 10
	TLVLSPBufferSize       uint8 = 14
	TLVExtendedISReach     uint8 = 22
	TLVIPv4PrefixesNarrow  uint8 = 128
	TLVNLPID               uint8 = 129
	TLVIPv4ExternalNarrow  uint8 = 130
	TLVIPv4InterfaceAddrs  uint8 = 132
	TLVRouterID            uint8 = 134
	TLVIPv4PrefixesWide    uint8 = 135
	TLVHostname            uint8 = 137
	TLVIPv6InterfaceAddrs  uint8 = 232
	TLVIPv6Prefixes        uint8 = 236
)

// PDU type codes, per spec §4.1.
const (
	PDUTypeIIHLANL1 uint8 = 15
	PDUTypeIIHLANL2 uint8 = 16
	PDUTypeIIHP2P   uint8 = 17
	PDUTypeLSPL1    uint8 = 18
	PDUTypeLSPL2    uint8 = 20
	PDUTypeCSNPL1   uint8 = 24
	PDUTypeCSNPL2   uint8 = 25
	PDUTypePSNPL1   uint8 = 26
	PDUTypePSNPL2   uint8 = 27
)

// NLPID octet values carried within a type-129 TLV.
const (
	NLPIDIPv4 byte = 0xCC
	NLPIDIPv6 byte = 0x8E
)

// IDRPDiscriminator is the network-layer protocol ID that identifies an
// IS-IS PDU in the first octet of its common header, per ISO 9577.
const IDRPDiscriminator byte = 0x83

// HeaderLen returns the on-wire length of the common header plus pduType's
// fixed-field block -- the value that goes in the PDU's own length-indicator
// octet (buf[1] of the common header).
func HeaderLen(pduType uint8) (int, error) {
	fixedLen, err := FixedFieldLen(pduType)
	if err != nil {
		return 0, err
	}
	return CommonHeaderLen + fixedLen, nil
}
