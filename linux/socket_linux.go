//go:build linux

package linux

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/emes30/bluetooth"
)

const (
	ioctlSize = 4
	typHCI    = 72 // 'H'
)

var (
	hciGetDeviceList = ior(typHCI, 210, ioctlSize) // HCIGETDEVLIST
	hciGetDeviceInfo = ior(typHCI, 211, ioctlSize) // HCIGETDEVINFO
)

func ior(t, nr, size uintptr) uintptr {
	return (2 << 30) | (size << 16) | (t << 8) | nr
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

// adapters lists the HCI devices known to the kernel.
func adapters() ([]bluetooth.Adapter, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.BTPROTO_HCI)
	if err != nil {
		return nil, errors.Wrap(err, "can't open hci socket")
	}
	defer unix.Close(fd)

	req := devListRequest{devNum: hciMaxDevices}
	if err := ioctl(fd, hciGetDeviceList, unsafe.Pointer(&req)); err != nil {
		return nil, errors.Wrap(err, "can't list hci devices")
	}
	var l []bluetooth.Adapter
	for i := 0; i < int(req.devNum) && i < hciMaxDevices; i++ {
		info := hciDevInfo{id: req.devRequest[i].id}
		if err := ioctl(fd, hciGetDeviceInfo, unsafe.Pointer(&info)); err != nil {
			logger.Warn("can't get device info", "dev", info.id, "err", err)
			continue
		}
		l = append(l, info.adapter())
	}
	return l, nil
}
