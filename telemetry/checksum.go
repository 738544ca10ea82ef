package telemetry

// crcPoly is CRC-16/CCITT reflected, as used by CRC-16/MCRF4XX
const crcPoly = 0x8408

// Checksum is the CRC over the length byte, sequence byte and payload of a
// frame. It goes into the trailer high byte first.
func Checksum(frame []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range frame {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
