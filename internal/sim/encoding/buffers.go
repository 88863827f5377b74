package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Frame attribute buffers cross the wire as base64(little-endian scalars).
// Fixed-width little-endian rather than varint: the buffers are dense float
// data, and a client can decode straight into a typed array.

func EncodeF32(vals []float32) string {
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func DecodeF32(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("f32 buffer length %d not a multiple of 4", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

func EncodeU32(vals []uint32) string {
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[4*i:], v)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func DecodeU32(b64 string) ([]uint32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("u32 buffer length %d not a multiple of 4", len(raw))
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return out, nil
}

func EncodeI32(vals []int32) string {
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[4*i:], uint32(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func DecodeI32(b64 string) ([]int32, error) {
	u, err := DecodeU32(b64)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(u))
	for i := range u {
		out[i] = int32(u[i])
	}
	return out, nil
}

func EncodeBytes(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func DecodeBytes(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}
