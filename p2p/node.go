// Copyright 2019 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package p2p

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrInvalidNodeStr is returned when a "id@ip:port" locator cannot be parsed.
var ErrInvalidNodeStr = errors.New("p2p: invalid node string, want id@ip:port")

// parsedNode is the decomposition of a "id@ip:port" boot/peer locator.
type parsedNode struct {
	NodeID string
	IP     string
	Port   uint32
}

// parseNodeStr parses "id@ip:port" as used in Config.LocalEndpoint and
// Config.BootNodes.
func parseNodeStr(s string) (parsedNode, error) {
	at := strings.IndexByte(s, '@')
	if at < 0 {
		return parsedNode{}, ErrInvalidNodeStr
	}
	id, addr := s[:at], s[at+1:]
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return parsedNode{}, fmt.Errorf("%w: %v", ErrInvalidNodeStr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		return parsedNode{}, fmt.Errorf("%w: %v", ErrInvalidNodeStr, err)
	}
	return parsedNode{NodeID: id, IP: host, Port: uint32(port)}, nil
}

func (n parsedNode) endpoint() string {
	return net.JoinHostPort(n.IP, strconv.FormatUint(uint64(n.Port), 10))
}

// fmtEndpoint renders an 8 byte v4-mapped wire IP and a port as "ip:port".
func fmtEndpoint(ip [8]byte, port uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", ip[0], ip[1], ip[2], ip[3], port)
}

// splitEndpoint parses "ip:port" back into the 8 byte wire IP form used by
// HANDSHAKEREQ/ACTIVENODESRES. Only IPv4 is represented on the wire; IPv6
// peers are out of scope for this core (spec.md declares only the shape of
// the endpoint, not full dual-stack support).
func splitEndpoint(endpoint string) (ip [8]byte, port uint32) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return ip, 0
	}
	p, _ := strconv.ParseUint(portStr, 10, 32)
	v4 := net.ParseIP(host).To4()
	if v4 != nil {
		copy(ip[:4], v4)
	}
	return ip, uint32(p)
}

// hostIP extracts just the IP portion of an "ip:port" endpoint string, used
// for ip_blacklist membership checks.
func hostIP(endpoint string) string {
	host, _, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint
	}
	return host
}
