package snapshot

import "fmt"

// LSPRecord is one LSDB entry as captured at snapshot time. It mirrors the
// fields carried by an SNP entry plus the encoded PDU's length, enough to
// reconstruct what isisdb-dump prints without re-parsing the wire format.
type LSPRecord struct {
	SystemId   string `protobuf:"bytes,1,opt,name=system_id,json=systemId,proto3" json:"system_id,omitempty"`
	Pseudonode uint32 `protobuf:"varint,2,opt,name=pseudonode,proto3" json:"pseudonode,omitempty"`
	SegNum     uint32 `protobuf:"varint,3,opt,name=seg_num,json=segNum,proto3" json:"seg_num,omitempty"`
	Level      uint32 `protobuf:"varint,4,opt,name=level,proto3" json:"level,omitempty"`
	SeqNo      uint32 `protobuf:"varint,5,opt,name=seq_no,json=seqNo,proto3" json:"seq_no,omitempty"`
	Checksum   uint32 `protobuf:"varint,6,opt,name=checksum,proto3" json:"checksum,omitempty"`
	Lifetime   uint32 `protobuf:"varint,7,opt,name=lifetime,proto3" json:"lifetime,omitempty"`
	Length     uint32 `protobuf:"varint,8,opt,name=length,proto3" json:"length,omitempty"`
	Timestamp  int64  `protobuf:"varint,9,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

func (m *LSPRecord) Reset() { *m = LSPRecord{} }
func (m *LSPRecord) String() string {
	return fmt.Sprintf("LSPRecord(sysid:%s pn:%d seg:%d L%d seqno:%#08x cksum:%#04x life:%d len:%d)",
		m.SystemId, m.Pseudonode, m.SegNum, m.Level, m.SeqNo, m.Checksum, m.Lifetime, m.Length)
}
func (*LSPRecord) ProtoMessage() {}
