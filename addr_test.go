package bluetooth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emes30/bluetooth"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", bluetooth.NormalizeAddress("aa:bb:cc:dd:ee:ff"))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", bluetooth.NormalizeAddress(" aa-bb-cc-dd-ee-ff "))
	assert.Equal(t,
		"34DA3AD1-7110-41A1-B1EF-4430F509CDE7",
		bluetooth.NormalizeAddress("34da3ad1-7110-41a1-b1ef-4430f509cde7"))
}
