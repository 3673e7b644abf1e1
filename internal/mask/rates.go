package mask

import "fmt"

// ScaleRates returns the shrink rate used to draw each kernel of an
// n-kernel stack when training data is generated.
//
// Rate i is 1 - (1-minScale)/(n-1)*i, so index 0 is the full text region
// (1.0) and the last index equals minScale. A single kernel has rate 1.0.
// minScale must lie in (0, 1].
func ScaleRates(kernels int, minScale float64) ([]float64, error) {
	if kernels <= 0 {
		return nil, fmt.Errorf("kernel count %d must be positive: %w", kernels, ErrInvalidShape)
	}
	if minScale <= 0 || minScale > 1 {
		return nil, fmt.Errorf("min scale %v must be in (0, 1]", minScale)
	}
	rates := make([]float64, kernels)
	rates[0] = 1.0
	for i := 1; i < kernels; i++ {
		rates[i] = 1.0 - (1.0-minScale)/float64(kernels-1)*float64(i)
	}
	return rates, nil
}
