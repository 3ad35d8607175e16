/***
Copyright 2014 Cisco Systems Inc. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package netutils finds the host addresses the plugin advertises itself on.
package netutils

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	netlink "github.com/vishvananda/netlink"

	log "github.com/sirupsen/logrus"
)

// GetNetlinkAddrList returns a list of local IP addresses using netlink
func GetNetlinkAddrList() ([]string, error) {
	var addrList []string
	// get the link list
	linkList, err := netlink.LinkList()
	if err != nil {
		return addrList, err
	}

	log.Debugf("Got link list(%d): %+v", len(linkList), linkList)

	// Loop thru each interface and add its ip addr to list
	for _, link := range linkList {
		if strings.HasPrefix(link.Attrs().Name, "docker") || strings.HasPrefix(link.Attrs().Name, "veth") ||
			strings.HasPrefix(link.Attrs().Name, "vhost") || strings.HasPrefix(link.Attrs().Name, "lo") {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			return addrList, err
		}

		for _, addr := range addrs {
			addrList = append(addrList, addr.IP.String())
		}
	}

	return addrList, nil
}

// IsAddrLocal check if an address is local
func IsAddrLocal(findAddr string) bool {
	addrList, err := GetNetlinkAddrList()
	if err != nil {
		return false
	}

	for _, addr := range addrList {
		if addr == findAddr {
			return true
		}
	}

	return false
}

// GetFirstLocalAddr returns the first ip address
func GetFirstLocalAddr() (string, error) {
	addrList, err := GetNetlinkAddrList()
	if err != nil {
		return "", err
	}

	if len(addrList) > 0 {
		return addrList[0], nil
	}

	return "", errors.New("no address was found")
}

// GetMyAddr returns the first non loopback ipv4 address of the hostname
func GetMyAddr() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", err
	}

	if host == "localhost" {
		return "", errors.New("could not get hostname")
	}

	addrs, err := net.LookupIP(host)
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipv4 := addr.To4(); ipv4 != nil && !ipv4.IsLoopback() {
			return ipv4.String(), nil
		}
	}

	return "", errors.New("could not find ip addr")
}

// GetDefaultAddr gets default address of local hostname
func GetDefaultAddr() (string, error) {
	localIP, err := GetMyAddr()
	if err == nil && IsAddrLocal(localIP) {
		return localIP, nil
	}

	// Return first available address if we could not find by hostname
	return GetFirstLocalAddr()
}

// ValidateBindAddress returns error if address is not in ip:port format
func ValidateBindAddress(address string) error {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("bind address is not in 'ip:port' format, got %s", address)
	}
	if host != "" && net.ParseIP(host) == nil {
		return fmt.Errorf("bind address %s is not an ip address", host)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("bind port is a integer between 1-65535, got %v", portStr)
	}
	return nil
}

// AdvertiseAddr returns the host address and port other hosts reach the
// listen address on. Unspecified listen addresses resolve to the default
// host address.
func AdvertiseAddr(listenURL string) (string, int, error) {
	if err := ValidateBindAddress(listenURL); err != nil {
		return "", 0, err
	}

	host, portStr, _ := net.SplitHostPort(listenURL)
	port, _ := strconv.Atoi(portStr)

	if ip := net.ParseIP(host); ip != nil && !ip.IsUnspecified() {
		return host, port, nil
	}

	localIP, err := GetDefaultAddr()
	if err != nil {
		return "", 0, fmt.Errorf("Failed to get host address: %v", err)
	}
	return localIP, port, nil
}
