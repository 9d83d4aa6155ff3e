package config

import (
	"reflect"
	"testing"
)

func TestParseISOAddressStripsDots(t *testing.T) {
	got, err := ParseISOAddress("0102.03fa.ebdc.fa")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x02, 0x03, 0xfa, 0xeb, 0xdc, 0xfa}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestParseSysIDRejectsWrongLength(t *testing.T) {
	if _, err := ParseSysID("0102.0304"); err == nil {
		t.Error("expected an error for a 4-byte sysid")
	}
	sysid, err := ParseSysID("0102.0304.0506")
	if err != nil {
		t.Fatal(err)
	}
	if sysid != ([6]byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("got %x", sysid)
	}
}

func TestParseInterfaceSpecP2PSuffix(t *testing.T) {
	spec := ParseInterfaceSpec("eth1:p2p")
	if spec.IfName != "eth1" || !spec.P2P {
		t.Errorf("got %+v", spec)
	}
	spec = ParseInterfaceSpec("eth0")
	if spec.IfName != "eth0" || spec.P2P {
		t.Errorf("got %+v", spec)
	}
}

func TestParseCircuitType(t *testing.T) {
	cases := map[string]CircuitType{"l1": L1, "l2": L2, "l12": L1L2}
	for s, want := range cases {
		got, err := ParseCircuitType(s)
		if err != nil || got != want {
			t.Errorf("ParseCircuitType(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if _, err := ParseCircuitType("bogus"); err == nil {
		t.Error("expected an error for an unrecognized is-type")
	}
}
