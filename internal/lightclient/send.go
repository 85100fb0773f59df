package lightclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/blocksource"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// defaultFee is the flat fee paid by every transaction, in base units.
const defaultFee uint64 = 10000

// maxSendAmount bounds the recipient total so the total plus fee still fits
// in a signed history amount.
const maxSendAmount = uint64(math.MaxInt64) - defaultFee

// Recipient is one payment in a send request.
type Recipient struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	Memo    string `json:"memo,omitempty"`
}

type sendResult struct {
	TxID string `json:"txid"`
}

// parseRecipients accepts "address amount" (as one token or two), a JSON
// object or a JSON array of objects.
func parseRecipients(args []string) ([]Recipient, error) {
	if len(args) == 1 {
		arg := strings.TrimSpace(args[0])
		switch {
		case strings.HasPrefix(arg, "["):
			var out []Recipient
			if err := json.Unmarshal([]byte(arg), &out); err != nil {
				return nil, bridgeerr.Wrap(bridgeerr.ErrInvalidInput, "parsing recipients: %v", err)
			}
			return out, nil
		case strings.HasPrefix(arg, "{"):
			var r Recipient
			if err := json.Unmarshal([]byte(arg), &r); err != nil {
				return nil, bridgeerr.Wrap(bridgeerr.ErrInvalidInput, "parsing recipient: %v", err)
			}
			return []Recipient{r}, nil
		default:
			args = strings.Fields(arg)
		}
	}

	if len(args) != 2 {
		return nil, bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "usage: send <address> <amount>")
	}
	amount, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return nil, bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"amount": args[1]})
	}
	return []Recipient{{Address: args[0], Amount: amount}}, nil
}

func cmdSend(ctx context.Context, c *Client, args []string) (any, error) {
	recipients, err := parseRecipients(args)
	if err != nil {
		return nil, err
	}
	txid, err := c.Send(ctx, recipients)
	if err != nil {
		return nil, err
	}
	return sendResult{TxID: txid}, nil
}

// Send pays recipients from verified seed-owned notes, oldest first, returning
// change to the first derived address.
func (c *Client) Send(ctx context.Context, recipients []Recipient) (string, error) {
	if len(recipients) == 0 {
		return "", bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "at least one recipient is required")
	}

	var amount uint64
	outputs := make([]blocksource.Output, 0, len(recipients)+1)
	for _, r := range recipients {
		if err := ValidateAddress(c.cfg.Chain, r.Address); err != nil {
			return "", err
		}
		if r.Amount == 0 {
			return "", bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"amount": "0"})
		}
		if r.Memo != "" {
			return "", bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "memos cannot be sent to transparent addresses")
		}
		if r.Amount > maxSendAmount-amount {
			return "", bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "total amount is too large")
		}
		amount += r.Amount
		outputs = append(outputs, blocksource.Output{Address: r.Address, Value: r.Amount})
	}
	recipientOutputs := append([]blocksource.Output(nil), outputs...)

	// One send at a time so two transactions never pick the same notes.
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	tx, err := c.buildTransaction(amount, outputs)
	if err != nil {
		return "", err
	}

	txid, err := c.source.Broadcast(ctx, tx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	for _, s := range tx.Spends {
		if n := c.wallet.findNote(s.TxID, s.Index); n != nil {
			n.SpentTxID = txid
		}
	}
	c.wallet.txs = append(c.wallet.txs, TxRecord{
		TxID:        txid,
		Time:        time.Now().Unix(),
		Amount:      -int64(amount + defaultFee), //nolint:gosec // bounded by maxSendAmount
		Fee:         defaultFee,
		Unconfirmed: true,
		Outgoing:    recipientOutputs,
	})
	c.mu.Unlock()

	c.logger.Info("transaction broadcast",
		zap.String("txid", txid),
		zap.Uint64("amount", amount),
		zap.Int("inputs", len(tx.Spends)))

	if err := c.save(); err != nil {
		return "", err
	}
	return txid, nil
}

// buildTransaction selects notes covering amount plus fee and appends change.
func (c *Client) buildTransaction(amount uint64, outputs []blocksource.Output) (*blocksource.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.wallet.locked() {
		return nil, bridgeerr.ErrWalletLocked
	}

	required := amount + defaultFee
	var selected uint64
	tx := &blocksource.Transaction{}
	for _, n := range c.wallet.spendableNotes() {
		if selected >= required {
			break
		}
		tx.Spends = append(tx.Spends, blocksource.Spend{TxID: n.TxID, Index: n.Index})
		selected += n.Value
	}
	if selected < required {
		return nil, bridgeerr.WithDetails(bridgeerr.ErrInsufficientFunds, map[string]string{
			"required":  strconv.FormatUint(required, 10),
			"available": strconv.FormatUint(c.wallet.balance().Spendable, 10),
		})
	}

	if change := selected - required; change > 0 {
		outputs = append(outputs, blocksource.Output{Address: c.wallet.changeAddress(), Value: change})
	}
	tx.Outputs = outputs

	body, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	tx.TxID = hex.EncodeToString(doubleSHA256(body))
	return tx, nil
}
