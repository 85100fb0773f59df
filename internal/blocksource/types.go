package blocksource

// Info describes the block server and the chain it serves.
type Info struct {
	ChainName   string `json:"chain_name"`
	Vendor      string `json:"vendor"`
	Version     string `json:"version"`
	BlockHeight uint64 `json:"block_height"`
}

// Output pays value to an address.
type Output struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
}

// Spend consumes a previous output.
type Spend struct {
	TxID  string `json:"txid"`
	Index uint32 `json:"index"`
}

// Transaction is the compact transaction form served by the block server.
type Transaction struct {
	TxID    string   `json:"txid"`
	Spends  []Spend  `json:"spends,omitempty"`
	Outputs []Output `json:"outputs,omitempty"`
}

// Block is a compact block: height, hash and the transactions it contains.
type Block struct {
	Height       uint64        `json:"height"`
	Hash         string        `json:"hash"`
	Time         int64         `json:"time"`
	Transactions []Transaction `json:"txs"`
}

type latestResponse struct {
	Height uint64 `json:"height"`
}

type broadcastResponse struct {
	TxID  string `json:"txid"`
	Error string `json:"error,omitempty"`
}
