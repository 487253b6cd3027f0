// Package nnue implements the quantized neural evaluation: a
// perspective-oriented feature transformer with king buckets feeding a
// small bucketed MLP.
package nnue

import "github.com/plentychess/plenty/internal/board"

// Network dimensions and quantization constants.
const (
	// InputSize is piece-kind x color x square per perspective.
	InputSize = 12 * 64

	// Feature transformer width.
	L1Size = 1792

	// MLP hidden widths.
	L2Size = 16
	L3Size = 32

	// Distinct feature-weight matrices selected by king placement.
	KingBuckets = 12

	// Distinct MLP weight sets selected by remaining material.
	OutputBuckets = 8

	// InputQuant clips accumulator activations; L1Quant rescales the
	// int8 product back down.
	InputQuant = 362
	L1Quant    = 64

	// NetworkScale converts the output scalar to centipawns.
	NetworkScale = 400
)

// Network holds the Plenty weight set. The feature transformer stays
// quantized (int16 columns, int8 first dense layer); the tail of the
// MLP runs in float32.
type Network struct {
	// FeatureWeights is int16[KingBuckets][InputSize][L1Size],
	// flattened; FeatureBias is shared across buckets.
	FeatureWeights []int16
	FeatureBias    [L1Size]int16

	// L1Weights is int8[OutputBuckets][L1Size][L2Size], flattened.
	L1Weights []int8
	L1Bias    [OutputBuckets][L2Size]float32

	// L2 combines the two perspective vectors.
	L2Weights [OutputBuckets][2][L2Size][L3Size]float32
	L2Bias    [OutputBuckets][L3Size]float32

	L3Weights [OutputBuckets][L3Size]float32
	L3Bias    [OutputBuckets]float32
}

// NewNetwork allocates a zeroed network.
func NewNetwork() *Network {
	return &Network{
		FeatureWeights: make([]int16, KingBuckets*InputSize*L1Size),
		L1Weights:      make([]int8, OutputBuckets*L1Size*L2Size),
	}
}

// featureColumn returns the weight column for one feature under one
// king bucket.
func (n *Network) featureColumn(bucket, feature int) []int16 {
	off := (bucket*InputSize + feature) * L1Size
	return n.FeatureWeights[off : off+L1Size]
}

// OutputBucket maps the cached material scalar to an MLP bucket.
func OutputBucket(material int) int {
	b := material / 1000
	if b >= OutputBuckets {
		b = OutputBuckets - 1
	}
	return b
}

func clip(v int16) int32 {
	if v < 0 {
		return 0
	}
	if v > InputQuant {
		return InputQuant
	}
	return int32(v)
}

func relu(x float32) float32 {
	if x < 0 {
		return 0
	}
	return x
}

// Evaluate runs the MLP over the accumulator pair and returns
// centipawns from the side to move's perspective.
func (n *Network) Evaluate(acc *Accumulator, sideToMove board.Color) int {
	bucket := OutputBucket(acc.Material)

	var persp [2]*[L1Size]int16
	if sideToMove == board.White {
		persp[0], persp[1] = &acc.White, &acc.Black
	} else {
		persp[0], persp[1] = &acc.Black, &acc.White
	}

	// L1: clipped accumulator x int8 weights, rescaled by L1Quant.
	var l2In [2][L2Size]float32
	weights := n.L1Weights[bucket*L1Size*L2Size : (bucket+1)*L1Size*L2Size]
	for p := 0; p < 2; p++ {
		var sums [L2Size]int32
		for j := 0; j < L1Size; j++ {
			a := clip(persp[p][j])
			if a == 0 {
				continue
			}
			row := weights[j*L2Size : j*L2Size+L2Size]
			for k := 0; k < L2Size; k++ {
				sums[k] += a * int32(row[k])
			}
		}
		for k := 0; k < L2Size; k++ {
			l2In[p][k] = relu(float32(sums[k])/L1Quant + n.L1Bias[bucket][k])
		}
	}

	// L2: both perspectives into L3Size.
	var l3In [L3Size]float32
	for k := 0; k < L3Size; k++ {
		sum := n.L2Bias[bucket][k]
		for p := 0; p < 2; p++ {
			for j := 0; j < L2Size; j++ {
				sum += l2In[p][j] * n.L2Weights[bucket][p][j][k]
			}
		}
		l3In[k] = relu(sum)
	}

	// L3: scalar head.
	out := n.L3Bias[bucket]
	for k := 0; k < L3Size; k++ {
		out += l3In[k] * n.L3Weights[bucket][k]
	}

	return int(out * NetworkScale)
}

// InitRandom fills the network with small deterministic pseudo-random
// weights. Test use only; real weights come from the blob loader.
func (n *Network) InitRandom(seed uint64) {
	state := seed
	next := func() uint64 {
		state = state*6364136223846793005 + 1442695040888963407
		return state >> 33
	}

	for i := range n.FeatureWeights {
		n.FeatureWeights[i] = int16(next()%17) - 8
	}
	for i := range n.FeatureBias {
		n.FeatureBias[i] = int16(next()%33) - 16
	}
	for i := range n.L1Weights {
		n.L1Weights[i] = int8(next()%15) - 7
	}
	for b := 0; b < OutputBuckets; b++ {
		for k := 0; k < L2Size; k++ {
			n.L1Bias[b][k] = float32(int(next()%9)-4) / 8
		}
		for p := 0; p < 2; p++ {
			for j := 0; j < L2Size; j++ {
				for k := 0; k < L3Size; k++ {
					n.L2Weights[b][p][j][k] = float32(int(next()%9)-4) / 16
				}
			}
		}
		for k := 0; k < L3Size; k++ {
			n.L2Bias[b][k] = float32(int(next()%9)-4) / 8
			n.L3Weights[b][k] = float32(int(next()%9)-4) / 16
		}
		n.L3Bias[b] = float32(int(next()%9)-4) / 8
	}
}
