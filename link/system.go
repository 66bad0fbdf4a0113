package link

import (
	"net"

	"github.com/sirupsen/logrus"
)

// SystemAssociator leaves association to the OS supplicant.
type SystemAssociator struct {
	Logger *logrus.Logger
}

func (s SystemAssociator) Associate(ssid, credential string) error {
	s.Logger.Infof("association with %s is left to the system supplicant", ssid)
	if credential == "" {
		s.Logger.Debugf("no credential configured for %s, relying on system supplicant", ssid)
	}
	return nil
}

// InterfaceProber reports the link up when the named interface (or any
// non-loopback interface when Name is empty) is up with an IPv4 address.
type InterfaceProber struct {
	Name string
}

func (p InterfaceProber) Up() bool {
	if p.Name != "" {
		iface, err := net.InterfaceByName(p.Name)
		if err != nil {
			return false
		}
		return usable(*iface)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback == 0 && usable(iface) {
			return true
		}
	}
	return false
}

func usable(iface net.Interface) bool {
	if iface.Flags&net.FlagUp == 0 {
		return false
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.To4() != nil {
			return true
		}
	}
	return false
}
