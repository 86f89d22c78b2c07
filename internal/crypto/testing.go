package crypto

import "io"

// SetRandReaderForTesting sets the random source used by Seal and
// RandomString. Returns a function to restore the original reader.
func SetRandReaderForTesting(r io.Reader) func() {
	original := randReader
	randReader = r
	return func() { randReader = original }
}
