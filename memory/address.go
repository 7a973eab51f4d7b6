package memory

import "fmt"

// Address is a 32-bit guest address as stored in target structures
type Address uint32

func (a Address) String() string {
	return fmt.Sprintf("0x%08X", uint32(a))
}

// FixPointer clears the top octet of a raw guest pointer. The target tags its
// pointers there, so the byte must be masked before indexing the window.
func FixPointer(ptr Address) Address {
	return ptr & 0x00FFFFFF
}

// AddressableSize is the span FixPointer can reach; every fixed-up address is below it
const AddressableSize = 1 << 24
