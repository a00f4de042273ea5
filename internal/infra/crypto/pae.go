package crypto

import "strconv"

// PAE computes the DSSE v1 pre-authentication encoding:
//
//	"DSSEv1" SP len(type) SP type SP len(payload) SP payload
//
// with decimal ASCII lengths and a single 0x20 separator. This is the exact
// byte string that gets signed; the envelope JSON itself never is.
func PAE(payloadType string, payload []byte) []byte {
	typeBytes := []byte(payloadType)
	out := make([]byte, 0, 16+len(typeBytes)+len(payload))
	out = append(out, "DSSEv1 "...)
	out = strconv.AppendInt(out, int64(len(typeBytes)), 10)
	out = append(out, ' ')
	out = append(out, typeBytes...)
	out = append(out, ' ')
	out = strconv.AppendInt(out, int64(len(payload)), 10)
	out = append(out, ' ')
	out = append(out, payload...)
	return out
}
