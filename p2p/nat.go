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
	"fmt"
	"time"

	natpmp "github.com/jackpal/go-nat-pmp"
	"github.com/huin/goupnp/dcps/internetgateway1"
)

// natLeaseDuration is how long a NAT-PMP mapping is requested for; the
// runtime does not currently renew it, so a long-lived node will need a
// restart once it expires.
const natLeaseDuration = 2 * time.Hour

// mapExternalPort makes a best-effort attempt to open port on the local
// gateway via NAT-PMP, falling back to UPnP IGDv1. Failure of both is not
// fatal: the node simply stays unreachable from outside its NAT, which only
// affects inbound dialing, not outbound (spec.md §7, listener setup is
// "best effort").
func (rt *Runtime) mapExternalPort(port uint32) error {
	if err := mapViaNATPMP(port); err == nil {
		return nil
	}
	return mapViaUPnP(port)
}

func mapViaNATPMP(port uint32) error {
	gw, err := natpmp.DiscoverGateway()
	if err != nil {
		return err
	}
	client := natpmp.NewClient(gw)
	_, err = client.AddPortMapping("tcp", int(port), int(port), int(natLeaseDuration.Seconds()))
	return err
}

func mapViaUPnP(port uint32) error {
	clients, _, err := internetgateway1.NewWANIPConnection1Clients()
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		return fmt.Errorf("p2p: no UPnP WANIPConnection1 gateway found")
	}
	for _, c := range clients {
		err = c.AddPortMapping("", uint16(port), "TCP", uint16(port), "probe-core", true, "", uint32(natLeaseDuration.Seconds()))
		if err == nil {
			return nil
		}
	}
	return err
}
