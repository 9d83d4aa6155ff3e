package linklayer

import "golang.org/x/sys/unix"

// isisFilter is a classic BPF program admitting only frames an IS-IS
// circuit cares about: an 802.3 length-framed packet (or the 0x8870
// jumboframe ethertype) carrying an 802.2 LLC header with DSAP=SSAP=0xFE,
// the IS-IS NLPID SAP. It is installed on the raw socket with
// SO_ATTACH_FILTER so non-IS-IS traffic on the interface is dropped in the
// kernel, before a copy ever reaches this process. Reproduced from
// pyisis.lib.bpf.iso_filter, translated from BSD BPF to the equivalent
// Linux classic-BPF opcodes (both implement the same instruction set).
var isisFilter = []unix.SockFilter{
	// 0: load the 2-byte ethertype/length field at offset 12
	{Code: unix.BPF_LD | unix.BPF_H | unix.BPF_ABS, K: 12},
	// 1: jumboframe ethertype -> skip the length check (go to 3)
	{Code: unix.BPF_JMP | unix.BPF_JEQ, Jt: 1, Jf: 0, K: 0x8870},
	// 2: length > 1500 -> not 802.3 framed, drop (go to 6)
	{Code: unix.BPF_JMP | unix.BPF_JGT, Jt: 3, Jf: 0, K: 1500},
	// 3: load the 2-byte LLC DSAP/SSAP field at offset 14
	{Code: unix.BPF_LD | unix.BPF_H | unix.BPF_ABS, K: 14},
	// 4: DSAP=SSAP=0xFE -> keep (go to 5), else drop (go to 6)
	{Code: unix.BPF_JMP | unix.BPF_JEQ, Jt: 0, Jf: 1, K: 0xfefe},
	// 5: keep, capturing the whole frame
	{Code: unix.BPF_RET, K: 0xffff},
	// 6: drop
	{Code: unix.BPF_RET, K: 0},
}

func attachFilter(fd int) error {
	prog := unix.SockFprog{
		Len:    uint16(len(isisFilter)),
		Filter: &isisFilter[0],
	}
	return unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &prog)
}
