//go:build windows

package socktab

import (
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/windows"

	"bytemomo/sonar/internal/domain"
)

var (
	iphlpapi           = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetExtendedTcp = iphlpapi.NewProc("GetExtendedTcpTable")
	procGetExtendedUdp = iphlpapi.NewProc("GetExtendedUdpTable")
)

const (
	afINET  = 2
	afINET6 = 23

	tcpTableOwnerPIDAll = 5
	udpTableOwnerPID    = 1

	mibTCPStateListen = 2

	errInsufficientBuffer = 122
)

type mibTCPRowOwnerPID struct {
	State      uint32
	LocalAddr  uint32
	LocalPort  uint32
	RemoteAddr uint32
	RemotePort uint32
	OwningPID  uint32
}

type mibTCP6RowOwnerPID struct {
	LocalAddr     [16]byte
	LocalScopeID  uint32
	LocalPort     uint32
	RemoteAddr    [16]byte
	RemoteScopeID uint32
	RemotePort    uint32
	State         uint32
	OwningPID     uint32
}

type mibUDPRowOwnerPID struct {
	LocalAddr uint32
	LocalPort uint32
	OwningPID uint32
}

type mibUDP6RowOwnerPID struct {
	LocalAddr    [16]byte
	LocalScopeID uint32
	LocalPort    uint32
	OwningPID    uint32
}

// IphlpapiSource reads the socket table through the iphlpapi extended table
// calls.
type IphlpapiSource struct{}

func NewIphlpapiSource() *IphlpapiSource { return &IphlpapiSource{} }

// Entries merges the TCP and UDP tables for both address families. A family
// whose table call fails is skipped.
func (s *IphlpapiSource) Entries() ([]Entry, error) {
	var all []Entry
	ok := 0
	for _, family := range []uint32{afINET, afINET6} {
		if rows, err := tcpEntries(family); err == nil {
			all = append(all, rows...)
			ok++
		}
		if rows, err := udpEntries(family); err == nil {
			all = append(all, rows...)
			ok++
		}
	}
	if ok == 0 {
		return nil, fmt.Errorf("no socket table could be read")
	}
	return all, nil
}

func extendedTable(proc *windows.LazyProc, family uint32, class uintptr) ([]byte, error) {
	var size uint32
	r0, _, _ := proc.Call(0, uintptr(unsafe.Pointer(&size)), 0, uintptr(family), class, 0)
	if r0 != errInsufficientBuffer && r0 != 0 {
		return nil, fmt.Errorf("%s size query failed: %d", proc.Name, r0)
	}
	if size == 0 {
		return nil, fmt.Errorf("%s returned size 0", proc.Name)
	}

	buf := make([]byte, size)
	r0, _, e1 := proc.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		0,
		uintptr(family),
		class,
		0,
	)
	if r0 != 0 {
		return nil, fmt.Errorf("%s failed: %v (code=%d)", proc.Name, e1, r0)
	}
	return buf, nil
}

func tcpEntries(family uint32) ([]Entry, error) {
	buf, err := extendedTable(procGetExtendedTcp, family, tcpTableOwnerPIDAll)
	if err != nil {
		return nil, err
	}

	bufPtr := uintptr(unsafe.Pointer(&buf[0]))
	numEntries := *(*uint32)(unsafe.Pointer(bufPtr))
	firstRowPtr := bufPtr + unsafe.Sizeof(numEntries)

	var entries []Entry
	if family == afINET {
		rowSize := unsafe.Sizeof(mibTCPRowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibTCPRowOwnerPID)(unsafe.Pointer(firstRowPtr + uintptr(i)*rowSize))
			entries = append(entries, Entry{
				Protocol:  domain.ProtocolTCP,
				LocalIP:   ipv4FromDWORD(row.LocalAddr),
				LocalPort: ntohs(row.LocalPort),
				State:     tcpState(row.State),
			})
		}
	} else {
		rowSize := unsafe.Sizeof(mibTCP6RowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibTCP6RowOwnerPID)(unsafe.Pointer(firstRowPtr + uintptr(i)*rowSize))
			entries = append(entries, Entry{
				Protocol:  domain.ProtocolTCP,
				LocalIP:   net.IP(row.LocalAddr[:]),
				LocalPort: ntohs(row.LocalPort),
				State:     tcpState(row.State),
			})
		}
	}
	return entries, nil
}

func udpEntries(family uint32) ([]Entry, error) {
	buf, err := extendedTable(procGetExtendedUdp, family, udpTableOwnerPID)
	if err != nil {
		return nil, err
	}

	bufPtr := uintptr(unsafe.Pointer(&buf[0]))
	numEntries := *(*uint32)(unsafe.Pointer(bufPtr))
	firstRowPtr := bufPtr + unsafe.Sizeof(numEntries)

	var entries []Entry
	if family == afINET {
		rowSize := unsafe.Sizeof(mibUDPRowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibUDPRowOwnerPID)(unsafe.Pointer(firstRowPtr + uintptr(i)*rowSize))
			entries = append(entries, Entry{
				Protocol:  domain.ProtocolUDP,
				LocalIP:   ipv4FromDWORD(row.LocalAddr),
				LocalPort: ntohs(row.LocalPort),
				State:     StateBound,
			})
		}
	} else {
		rowSize := unsafe.Sizeof(mibUDP6RowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibUDP6RowOwnerPID)(unsafe.Pointer(firstRowPtr + uintptr(i)*rowSize))
			entries = append(entries, Entry{
				Protocol:  domain.ProtocolUDP,
				LocalIP:   net.IP(row.LocalAddr[:]),
				LocalPort: ntohs(row.LocalPort),
				State:     StateBound,
			})
		}
	}
	return entries, nil
}

func ipv4FromDWORD(addr uint32) net.IP {
	return net.IPv4(byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24))
}

func ntohs(p uint32) uint16 {
	v := uint16(p)
	return (v >> 8) | (v << 8)
}

func tcpState(s uint32) State {
	if s == mibTCPStateListen {
		return StateListen
	}
	return StateOther
}
