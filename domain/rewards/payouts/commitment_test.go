package payouts

import (
	"testing"

	"github.com/smartcash/smartrewardsd/util/hashes"
	"github.com/stretchr/testify/require"
)

func TestCommitmentIgnoresOrder(t *testing.T) {
	results := testResults(t, 7)
	blockHash := hashes.DoubleHashH([]byte("closing block"))

	commitment := Commitment(results)
	require.Equal(t, commitment, Commitment(Order(results, &blockHash)))

	results[3].Reward++
	require.NotEqual(t, commitment, Commitment(results))
}
