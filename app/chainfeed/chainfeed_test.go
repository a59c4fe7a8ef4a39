package chainfeed

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/smartcash/smartrewardsd/domain/rewards/model"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
	"github.com/smartcash/smartrewardsd/util/hashes"
	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T, seed byte) model.Address {
	address, err := model.NewAddress(rewardsconfig.RegtestParams.PubKeyHashAddrID,
		bytes.Repeat([]byte{seed}, model.AddressHashSize))
	require.NoError(t, err)
	return address
}

func TestReader(t *testing.T) {
	a, b := testAddress(t, 1), testAddress(t, 2)
	blockHash := hashes.DoubleHashH([]byte("block"))
	txHash := hashes.DoubleHashH([]byte("transaction"))

	feed := strings.Join([]string{
		`{"type":"tip","height":120}`,
		``,
		fmt.Sprintf(`{"type":"connect","block":{"height":11,"hash":"%s","time":1600000660,"transactions":[`+
			`{"hash":"%s","inputs":[{"address":"%s","amount":300},{"amount":5}],`+
			`"outputs":[{"address":"%s","amount":250,"smartnode":true}],"voteProof":"%s"}]}}`,
			blockHash, txHash, a, b, a),
		fmt.Sprintf(`{"type":"disconnect","block":{"height":11,"hash":"%s","time":1600000660}}`, blockHash),
	}, "\n")
	reader := NewReader(strings.NewReader(feed), &rewardsconfig.RegtestParams)

	notification, err := reader.Next()
	require.NoError(t, err)
	require.Equal(t, NotificationTip, notification.Type)
	require.EqualValues(t, 120, notification.Height)
	require.Nil(t, notification.Block)

	notification, err = reader.Next()
	require.NoError(t, err)
	require.Equal(t, NotificationConnect, notification.Type)
	block := notification.Block
	require.EqualValues(t, 11, block.Height)
	require.Equal(t, blockHash, block.Hash)
	require.EqualValues(t, 1600000660, block.Time)
	require.Len(t, block.Transactions, 1)

	transaction := block.Transactions[0]
	require.Equal(t, txHash, transaction.Hash)
	require.False(t, transaction.IsCoinbase)
	require.Equal(t, a, *transaction.Inputs[0].Address)
	require.Equal(t, btcutil.Amount(300), transaction.Inputs[0].Amount)
	require.Nil(t, transaction.Inputs[1].Address)
	require.Equal(t, b, *transaction.Outputs[0].Address)
	require.True(t, transaction.Outputs[0].IsSmartnodePayment)
	require.Equal(t, a, *transaction.VoteProof)

	notification, err = reader.Next()
	require.NoError(t, err)
	require.Equal(t, NotificationDisconnect, notification.Type)
	require.Empty(t, notification.Block.Transactions)

	_, err = reader.Next()
	require.Equal(t, io.EOF, err)
}

func TestReaderMalformed(t *testing.T) {
	hash := hashes.DoubleHashH([]byte("block"))
	mainnetAddress, err := model.NewAddress(rewardsconfig.MainnetParams.PubKeyHashAddrID,
		bytes.Repeat([]byte{7}, model.AddressHashSize))
	require.NoError(t, err)

	tests := []struct {
		name string
		line string
	}{
		{name: "not json", line: `connect 11`},
		{name: "unknown type", line: `{"type":"reorg"}`},
		{name: "connect without block", line: `{"type":"connect"}`},
		{name: "missing block hash", line: `{"type":"connect","block":{"height":3}}`},
		{name: "invalid block hash", line: `{"type":"connect","block":{"height":3,"hash":"xyz"}}`},
		{name: "negative amount", line: fmt.Sprintf(
			`{"type":"connect","block":{"height":3,"hash":"%s","transactions":[{"hash":"%s","outputs":[{"amount":-1}]}]}}`,
			hash, hash)},
		{name: "foreign address", line: fmt.Sprintf(
			`{"type":"connect","block":{"height":3,"hash":"%s","transactions":[{"hash":"%s","outputs":[{"address":"%s","amount":1}]}]}}`,
			hash, hash, mainnetAddress)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reader := NewReader(strings.NewReader(test.line), &rewardsconfig.RegtestParams)
			_, err := reader.Next()
			require.Error(t, err)
			require.NotEqual(t, io.EOF, err)
		})
	}
}
