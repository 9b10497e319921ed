package media

// CRC-CCITT (polynomial 0x1021), as computed by floppy disk controllers.

var crc1021 = func() (t [256]uint16) {
	for i := range t {
		w := uint16(i) << 8
		for range 8 {
			if w&0x8000 != 0 {
				w = w<<1 ^ 0x1021
			} else {
				w <<= 1
			}
		}
		t[i] = w
	}
	return t
}()

const (
	// CRC of the address marks preceding ID and data fields
	// (a1 a1 a1 fe and a1 a1 a1 fb), starting from 0xffff.
	crcSeedID   = 0xb230
	crcSeedData = 0xe295
)

func crc16(crc uint16, b byte) uint16 {
	return crc1021[byte(crc>>8)^b] ^ crc<<8
}

// CRC16 returns the CRC of buf, starting from seed.
func CRC16(seed uint16, buf []byte) uint16 {
	for _, b := range buf {
		seed = crc16(seed, b)
	}
	return seed
}
