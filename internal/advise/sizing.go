package advise

const (
	minVarchar      = 32
	maxVarchar      = 255
	bufferFactor    = 2
	sizeGranularity = 10
)

// RoundSize turns an observed maximum length into a VARCHAR size: the
// length is doubled, floored at 32, rounded up to a multiple of 10 and
// capped at 255. Empty columns get 32.
func RoundSize(n int64) int64 {
	if n <= 0 {
		return minVarchar
	}
	n = max(minVarchar, n*bufferFactor)
	n = (n + sizeGranularity - 1) / sizeGranularity * sizeGranularity
	return min(n, maxVarchar)
}
