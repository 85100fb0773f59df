package lightclient

import (
	"sort"

	"github.com/mrz1836/litebridge/internal/blocksource"
)

// minConfirmations is the depth at which received funds become spendable.
const minConfirmations = 3

// Address is a wallet address and where it came from.
type Address struct {
	Address   string `json:"address" yaml:"address"`
	Index     uint32 `json:"index" yaml:"index"`
	WatchOnly bool   `json:"watch_only,omitempty" yaml:"watch_only,omitempty"`
	Birthday  uint64 `json:"birthday,omitempty" yaml:"birthday,omitempty"`
}

// Note is an output paying one of the wallet's addresses.
type Note struct {
	TxID        string `json:"txid" yaml:"txid"`
	Index       uint32 `json:"index" yaml:"index"`
	Address     string `json:"address" yaml:"address"`
	Value       uint64 `json:"value" yaml:"value"`
	Height      uint64 `json:"height" yaml:"height"`
	SpentTxID   string `json:"spent,omitempty" yaml:"spent_txid,omitempty"`
	SpentHeight uint64 `json:"spent_at_height,omitempty" yaml:"spent_height,omitempty"`
}

// TxRecord summarizes a transaction touching the wallet.
type TxRecord struct {
	TxID        string               `json:"txid" yaml:"txid"`
	Height      uint64               `json:"block_height" yaml:"height"`
	Time        int64                `json:"datetime" yaml:"time"`
	Amount      int64                `json:"amount" yaml:"amount"`
	Fee         uint64               `json:"fee,omitempty" yaml:"fee,omitempty"`
	Unconfirmed bool                 `json:"unconfirmed" yaml:"unconfirmed"`
	Outgoing    []blocksource.Output `json:"outgoing_metadata,omitempty" yaml:"outgoing,omitempty"`
}

// Balance is the wallet balance breakdown in base units.
type Balance struct {
	Total       uint64 `json:"transparent_balance"`
	Verified    uint64 `json:"verified_balance"`
	Unverified  uint64 `json:"unverified_balance"`
	Spendable   uint64 `json:"spendable_balance"`
	Unconfirmed uint64 `json:"unconfirmed_balance"`
}

// walletState is everything the client knows about the wallet. All access
// goes through Client.mu.
type walletState struct {
	seed          []byte // nil while locked
	encryptedSeed []byte
	birthday      uint64
	syncedHeight  uint64
	addresses     []Address
	notes         []Note
	txs           []TxRecord
	pending       map[string]uint64 // mempool txid -> incoming value
}

func newWalletState(birthday uint64) *walletState {
	return &walletState{
		birthday:     birthday,
		syncedHeight: scanStart(birthday) - 1,
		pending:      make(map[string]uint64),
	}
}

// scanStart is the first block scanned for a wallet born at birthday.
func scanStart(birthday uint64) uint64 {
	if birthday == 0 {
		return 1
	}
	return birthday
}

func (w *walletState) locked() bool {
	return w.seed == nil
}

func (w *walletState) encrypted() bool {
	return len(w.encryptedSeed) > 0
}

func (w *walletState) owns(address string) (Address, bool) {
	for _, a := range w.addresses {
		if a.Address == address {
			return a, true
		}
	}
	return Address{}, false
}

func (w *walletState) nextIndex() uint32 {
	var next uint32
	for _, a := range w.addresses {
		if !a.WatchOnly && a.Index >= next {
			next = a.Index + 1
		}
	}
	return next
}

// rescanFrom is the lowest birthday across the seed and watch-only imports.
func (w *walletState) rescanFrom() uint64 {
	from := w.birthday
	for _, a := range w.addresses {
		if a.WatchOnly && a.Birthday < from {
			from = a.Birthday
		}
	}
	return scanStart(from)
}

// resetChain forgets everything learned from the chain.
func (w *walletState) resetChain() {
	w.notes = nil
	w.txs = nil
	w.pending = make(map[string]uint64)
	w.syncedHeight = w.rescanFrom() - 1
}

func (w *walletState) findNote(txid string, index uint32) *Note {
	for i := range w.notes {
		if w.notes[i].TxID == txid && w.notes[i].Index == index {
			return &w.notes[i]
		}
	}
	return nil
}

func (w *walletState) findTx(txid string) *TxRecord {
	for i := range w.txs {
		if w.txs[i].TxID == txid {
			return &w.txs[i]
		}
	}
	return nil
}

// scanBlock records notes received and spent in b.
func (w *walletState) scanBlock(b *blocksource.Block) {
	for _, tx := range b.Transactions {
		var received, spent uint64
		involved := false

		for _, s := range tx.Spends {
			n := w.findNote(s.TxID, s.Index)
			if n == nil {
				continue
			}
			n.SpentTxID = tx.TxID
			n.SpentHeight = b.Height
			spent += n.Value
			involved = true
		}

		for i, o := range tx.Outputs {
			if _, ok := w.owns(o.Address); !ok {
				continue
			}
			involved = true
			received += o.Value

			//nolint:gosec // output counts are small
			if n := w.findNote(tx.TxID, uint32(i)); n != nil {
				n.Height = b.Height
				continue
			}
			w.notes = append(w.notes, Note{
				TxID:    tx.TxID,
				Index:   uint32(i), //nolint:gosec // output counts are small
				Address: o.Address,
				Value:   o.Value,
				Height:  b.Height,
			})
		}

		delete(w.pending, tx.TxID)
		if !involved {
			continue
		}

		if rec := w.findTx(tx.TxID); rec != nil {
			rec.Height = b.Height
			rec.Time = b.Time
			rec.Unconfirmed = false
			continue
		}
		w.txs = append(w.txs, TxRecord{
			TxID:   tx.TxID,
			Height: b.Height,
			Time:   b.Time,
			Amount: int64(received) - int64(spent), //nolint:gosec // amounts fit in int64
		})
	}
}

// confirmations returns how deep n is below the synced tip.
func (w *walletState) confirmations(n *Note) uint64 {
	if n.Height == 0 || n.Height > w.syncedHeight {
		return 0
	}
	return w.syncedHeight - n.Height + 1
}

func (w *walletState) balance() Balance {
	var b Balance
	for i := range w.notes {
		n := &w.notes[i]
		if n.SpentTxID != "" {
			continue
		}
		b.Total += n.Value
		if w.confirmations(n) < minConfirmations {
			b.Unverified += n.Value
			continue
		}
		b.Verified += n.Value
		if a, ok := w.owns(n.Address); ok && !a.WatchOnly {
			b.Spendable += n.Value
		}
	}
	for _, v := range w.pending {
		b.Unconfirmed += v
	}
	return b
}

// spendableNotes returns unspent, verified, seed-owned notes, oldest first.
func (w *walletState) spendableNotes() []*Note {
	var out []*Note
	for i := range w.notes {
		n := &w.notes[i]
		if n.SpentTxID != "" || w.confirmations(n) < minConfirmations {
			continue
		}
		if a, ok := w.owns(n.Address); !ok || a.WatchOnly {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// observeMempool replaces the pending incoming set from a mempool snapshot.
func (w *walletState) observeMempool(txs []blocksource.Transaction) {
	pending := make(map[string]uint64)
	for _, tx := range txs {
		if w.findTx(tx.TxID) != nil {
			continue
		}
		for _, o := range tx.Outputs {
			if _, ok := w.owns(o.Address); ok {
				pending[tx.TxID] += o.Value
			}
		}
	}
	w.pending = pending
}

// changeAddress is the first seed-derived address.
func (w *walletState) changeAddress() string {
	for _, a := range w.addresses {
		if !a.WatchOnly && a.Index == 0 {
			return a.Address
		}
	}
	return ""
}
