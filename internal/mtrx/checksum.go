package mtrx

// Checksum computes the MT-RX 16-bit rolling checksum over data.
//
// Each byte is XORed into the accumulator, which is then shifted left by one;
// when bit 15 was set before the shift, bit 0 is set afterwards. The result is
// order dependent and an empty input yields 0.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum ^= uint16(b)
		if sum&0x8000 != 0 {
			sum = sum<<1 | 0x0001
		} else {
			sum <<= 1
		}
	}
	return sum
}
