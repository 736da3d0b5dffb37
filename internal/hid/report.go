package hid

// ReportSize is the boot keyboard input report length in bytes.
const ReportSize = 8

// MaxKeys is the number of simultaneous non-modifier keys a boot report
// can carry.
const MaxKeys = 6

// Report is one boot keyboard input report:
//
//	byte 0    modifier mask
//	byte 1    reserved, always zero
//	bytes 2-7 usage codes of held keys, zero-padded
type Report [ReportSize]byte

// Encode builds a report from a modifier mask and the usage codes of the
// currently held keys, in press order. Keys beyond MaxKeys are ignored;
// the encoder is total and never fails.
func Encode(mask byte, keys []byte) Report {
	var r Report
	r[0] = mask
	for i, k := range keys {
		if i == MaxKeys {
			break
		}
		r[2+i] = k
	}
	return r
}

// IsEmpty reports whether r carries no modifiers and no keys, i.e. the
// all-released state.
func (r Report) IsEmpty() bool {
	return r == Report{}
}
