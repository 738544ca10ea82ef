package core

// itoa converts an integer to a string without using fmt package
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789ABCDEF"

// Hex16 formats v as 0x-prefixed, four upper-case hex digits
func Hex16(v uint16) string {
	var buf [6]byte
	buf[0] = '0'
	buf[1] = 'x'
	for i := 0; i < 4; i++ {
		buf[5-i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(buf[:])
}

// Utoa is utoa for other packages that avoid fmt
func Utoa(n uint32) string {
	return utoa(n)
}
