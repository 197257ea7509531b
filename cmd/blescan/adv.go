package main

import (
	"fmt"
	"sort"

	"github.com/emes30/bluetooth"
)

func advHandler(dup bool) bluetooth.Callback {
	return func(a *bluetooth.Advertisement, change bluetooth.ChangeKind) {
		if !dup && change != bluetooth.ChangeNew {
			return
		}
		printAdv(a)
	}
}

func printAdv(a *bluetooth.Advertisement) {
	if a.Connectable() {
		fmt.Printf("[%s] C %3d:", a.Address(), a.RSSI())
	} else {
		fmt.Printf("[%s] N %3d:", a.Address(), a.RSSI())
	}
	comma := ""
	if len(a.LocalName()) > 0 {
		fmt.Printf(" Name: %s", a.LocalName())
		comma = ","
	}
	if len(a.ServiceUUIDs()) > 0 {
		fmt.Printf("%s Svcs: %v", comma, a.ServiceUUIDs())
		comma = ","
	}
	if md := a.ManufacturerData(); len(md) > 0 {
		ids := make([]int, 0, len(md))
		for id := range md {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		for _, id := range ids {
			fmt.Printf("%s MD[%04X]: %X", comma, id, md[uint16(id)])
			comma = ","
		}
	}
	if sd := a.ServiceData(); len(sd) > 0 {
		fmt.Printf("%s SD: %d", comma, len(sd))
	}
	fmt.Printf("\n")
}

func flowHandler(domain string, a *bluetooth.Advertisement) {
	logger.Info("discovered", "domain", domain, "addr", a.Address(), "name", a.LocalName())
}
