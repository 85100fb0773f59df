package lightclient

import "errors"

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var errInvalidBase58 = errors.New("invalid base58 encoding")

// base58CheckEncode encodes version||payload||checksum.
func base58CheckEncode(version, payload []byte) string {
	data := make([]byte, 0, len(version)+len(payload)+4)
	data = append(data, version...)
	data = append(data, payload...)
	data = append(data, doubleSHA256(data)[:4]...)
	return base58Encode(data)
}

// base58CheckDecode verifies the checksum and returns version||payload.
func base58CheckDecode(s string) ([]byte, error) {
	decoded, err := base58Decode(s)
	if err != nil {
		return nil, err
	}
	if len(decoded) < 5 {
		return nil, errInvalidBase58
	}

	payload := decoded[:len(decoded)-4]
	want := doubleSHA256(payload)[:4]
	for i, b := range decoded[len(decoded)-4:] {
		if b != want[i] {
			return nil, errInvalidBase58
		}
	}
	return payload, nil
}

func base58Encode(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	buf := make([]byte, (len(data)-zeros)*138/100+1) // log(256) / log(58), rounded up
	for _, b := range data[zeros:] {
		carry := int(b)
		for j := len(buf) - 1; j >= 0; j-- {
			carry += int(buf[j]) << 8
			buf[j] = byte(carry % 58)
			carry /= 58
		}
	}

	j := 0
	for j < len(buf) && buf[j] == 0 {
		j++
	}

	out := make([]byte, zeros+len(buf)-j)
	for i := range zeros {
		out[i] = '1'
	}
	for i, b := range buf[j:] {
		out[zeros+i] = base58Alphabet[b]
	}
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	if s == "" {
		return nil, errInvalidBase58
	}

	zeros := 0
	for zeros < len(s) && s[zeros] == '1' {
		zeros++
	}

	b256 := make([]byte, len(s)*733/1000+1) // log(58) / log(256), rounded up
	for i := zeros; i < len(s); i++ {
		carry := indexOf(s[i])
		if carry < 0 {
			return nil, errInvalidBase58
		}
		for j := len(b256) - 1; j >= 0; j-- {
			carry += int(b256[j]) * 58
			b256[j] = byte(carry % 256)
			carry /= 256
		}
	}

	j := 0
	for j < len(b256) && b256[j] == 0 {
		j++
	}
	out := make([]byte, zeros+len(b256)-j)
	copy(out[zeros:], b256[j:])
	return out, nil
}

func indexOf(c byte) int {
	for i := 0; i < len(base58Alphabet); i++ {
		if base58Alphabet[i] == c {
			return i
		}
	}
	return -1
}
