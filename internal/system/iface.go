package system

import (
	"errors"
	"fmt"
	"net"
)

// NIC is an interface together with the addresses packets are sent from.
type NIC struct {
	Interface *net.Interface

	IPv4    net.IP
	Network *net.IPNet // on-link IPv4 network
	IPv6    net.IP
}

// LookupNIC resolves the named interface, or the default one when name is empty.
func LookupNIC(name string) (*NIC, error) {
	var (
		iface *net.Interface
		err   error
	)

	if name == "" {
		iface, err = FindDefaultInterface()
	} else {
		iface, err = net.InterfaceByName(name)
	}
	if err != nil {
		return nil, err
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("could not get addresses of %s: %w", iface.Name, err)
	}

	nic := nicFromAddrs(iface, addrs)
	if nic.IPv4 == nil && nic.IPv6 == nil {
		return nil, fmt.Errorf("no usable address found on interface %s", iface.Name)
	}

	return nic, nil
}

// nicFromAddrs picks the first non-loopback IPv4 address and the first IPv6
// address, preferring global unicast over link-local.
func nicFromAddrs(iface *net.Interface, addrs []net.Addr) *NIC {
	nic := &NIC{Interface: iface}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}

		if ip4 := ipnet.IP.To4(); ip4 != nil {
			if nic.IPv4 == nil {
				mask := ipnet.Mask
				if len(mask) == net.IPv6len {
					mask = mask[12:]
				}
				nic.IPv4 = ip4
				nic.Network = &net.IPNet{IP: ip4.Mask(mask), Mask: mask}
			}
			continue
		}

		if nic.IPv6 == nil || (nic.IPv6.IsLinkLocalUnicast() && ipnet.IP.IsGlobalUnicast()) {
			nic.IPv6 = ipnet.IP
		}
	}

	return nic
}

// FindDefaultInterface finds the interface used for internet traffic by
// dialing a public DNS server over UDP and matching the chosen local address.
// No packet is sent.
func FindDefaultInterface() (*net.Interface, error) {
	dnsServers := []string{
		"8.8.8.8:53",
		"8.8.4.4:53",
		"1.1.1.1:53",
		"1.0.0.1:53",
		"9.9.9.9:53",
	}

	var conn net.Conn
	var err error

	for _, server := range dnsServers {
		conn, err = net.Dial("udp", server)
		if err == nil {
			break
		}
	}

	if err != nil {
		return nil, fmt.Errorf(
			"could not dial any public DNS to determine default interface: %w",
			err,
		)
	}
	defer func() { _ = conn.Close() }()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, errors.New("could not determine local address from UDP connection")
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("could not get network interfaces: %w", err)
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(localAddr.IP) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf(
		"failed to find default interface for local IP: %s",
		localAddr.IP,
	)
}
