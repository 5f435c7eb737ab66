package hdlc

// Accm is the 32-bit Async-Control-Character-Map: bit n set (for
// 0 <= n < 32) means byte n must be escaped on transmit and dropped
// on receive. Bytes 0x7E and 0x7D are always treated as if mapped,
// regardless of what the negotiated map says.
type Accm uint32

// DefaultAccm is the all-ones map LCP starts negotiation with.
const DefaultAccm Accm = 0xffffffff

// IsSet reports whether byte b (0-31) is mapped for escaping/dropping.
// Bytes outside 0-31 are never mapped.
func (a Accm) IsSet(b byte) bool {
	if b >= 0x20 {
		return false
	}
	return a&(1<<uint(b)) != 0
}

// mustEscape reports whether b must be byte-stuffed on transmit: the
// control characters named by accm, plus the flag and escape octets
// themselves, which are never sent unescaped inside a frame.
func mustEscape(accm Accm, b byte) bool {
	return b == flagByte || b == escByte || accm.IsSet(b)
}
