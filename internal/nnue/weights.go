package nnue

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// The weights blob is a headerless little-endian byte sequence with
// sections in this order:
//
//	feature weights  int16[KingBuckets][InputSize][L1Size]
//	feature biases   int16[L1Size]
//	L1 weights       int8[OutputBuckets][L1Size][L2Size]
//	L1 biases        float32[OutputBuckets][L2Size]
//	L2 weights       float32[OutputBuckets][2][L2Size][L3Size]
//	L2 biases        float32[OutputBuckets][L3Size]
//	L3 weights       float32[OutputBuckets][L3Size]
//	L3 biases        float32[OutputBuckets]
//
// There is no magic number or version tag; the only validation is the
// exact computed size for the configured dimensions.

// WeightsSize is the minimum byte length of a valid blob.
const WeightsSize = KingBuckets*InputSize*L1Size*2 +
	L1Size*2 +
	OutputBuckets*L1Size*L2Size +
	OutputBuckets*L2Size*4 +
	OutputBuckets*2*L2Size*L3Size*4 +
	OutputBuckets*L3Size*4 +
	OutputBuckets*L3Size*4 +
	OutputBuckets*4

// LoadWeights reads a network from a weights blob file.
func LoadWeights(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	return ParseWeights(data)
}

// ParseWeights decodes a weights blob from memory.
func ParseWeights(data []byte) (*Network, error) {
	if len(data) < WeightsSize {
		return nil, fmt.Errorf("weights blob too short: %d bytes, need %d", len(data), WeightsSize)
	}

	n := NewNetwork()
	r := blobReader{data: data}

	for i := range n.FeatureWeights {
		n.FeatureWeights[i] = r.int16()
	}
	for i := range n.FeatureBias {
		n.FeatureBias[i] = r.int16()
	}
	for i := range n.L1Weights {
		n.L1Weights[i] = r.int8()
	}
	for b := 0; b < OutputBuckets; b++ {
		for k := 0; k < L2Size; k++ {
			n.L1Bias[b][k] = r.float32()
		}
	}
	for b := 0; b < OutputBuckets; b++ {
		for p := 0; p < 2; p++ {
			for j := 0; j < L2Size; j++ {
				for k := 0; k < L3Size; k++ {
					n.L2Weights[b][p][j][k] = r.float32()
				}
			}
		}
	}
	for b := 0; b < OutputBuckets; b++ {
		for k := 0; k < L3Size; k++ {
			n.L2Bias[b][k] = r.float32()
		}
	}
	for b := 0; b < OutputBuckets; b++ {
		for k := 0; k < L3Size; k++ {
			n.L3Weights[b][k] = r.float32()
		}
	}
	for b := 0; b < OutputBuckets; b++ {
		n.L3Bias[b] = r.float32()
	}

	return n, nil
}

// blobReader walks the byte slice; bounds were checked up front.
type blobReader struct {
	data []byte
	off  int
}

func (r *blobReader) int8() int8 {
	v := int8(r.data[r.off])
	r.off++
	return v
}

func (r *blobReader) int16() int16 {
	v := int16(binary.LittleEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v
}

func (r *blobReader) float32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}
