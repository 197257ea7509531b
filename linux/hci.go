package linux

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"github.com/emes30/bluetooth"
)

const (
	hciMaxDevices = 16

	hciFlagUp       = 1 << 0 // HCI_UP
	lmpLESupported  = 0x40   // LMP feature page 0, byte 4, bit 6
	lmpLEFeatureIdx = 4
)

type devRequest struct {
	id  uint16
	opt uint32
}

type devListRequest struct {
	devNum     uint16
	devRequest [hciMaxDevices]devRequest
}

type hciDevInfo struct {
	id         uint16
	name       [8]byte
	bdaddr     [6]byte
	flags      uint32
	devType    uint8
	features   [8]uint8
	pktType    uint32
	linkPolicy uint32
	linkMode   uint32
	aclMtu     uint16
	aclPkts    uint16
	scoMtu     uint16
	scoPkts    uint16

	stats hciDevStats
}

type hciDevStats struct {
	errRx  uint32
	errTx  uint32
	cmdTx  uint32
	evtRx  uint32
	aclTx  uint32
	aclRx  uint32
	scoTx  uint32
	scoRx  uint32
	byteRx uint32
	byteTx uint32
}

// adapter converts the kernel's device info.
func (i *hciDevInfo) adapter() bluetooth.Adapter {
	name := string(bytes.TrimRight(i.name[:], "\x00"))
	if name == "" {
		name = fmt.Sprintf("hci%d", i.id)
	}
	b := i.bdaddr
	return bluetooth.Adapter{
		ID:      fmt.Sprintf("hci%d", i.id),
		Name:    name,
		Address: fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[5], b[4], b[3], b[2], b[1], b[0]),
		LE:      i.features[lmpLEFeatureIdx]&lmpLESupported != 0,
		Up:      i.flags&hciFlagUp != 0,
	}
}

// deviceID parses "hciN" into N.
func deviceID(id string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(id, "hci%d", &n); err != nil || n < 0 {
		return 0, errors.Errorf("not an hci device: %q", id)
	}
	return n, nil
}
