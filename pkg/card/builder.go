package card

// MaxResponseLength is the size of the response buffer a host runtime provides
// for short APDUs.
const MaxResponseLength = 256

// BuildResponse copies rec to the start of dst and rewrites the outer length
// byte from the number of bytes actually copied. It returns that number and
// leaves dst[n:] untouched.
//
// dst must hold at least rec.Len() bytes.
func BuildResponse(dst []byte, rec DataObjectRecord) int {
	n := copy(dst, rec)
	dst[1] = byte(n - 2)
	return n
}
