package lightclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// errorPrefix marks a failed command result.
const errorPrefix = "Error: "

// maxCommandSuggestionDistance bounds the typo distance for "did you mean".
const maxCommandSuggestionDistance = 3

type command struct {
	short string
	help  string
	run   func(ctx context.Context, c *Client, args []string) (any, error)
}

func commandTable() map[string]command {
	return map[string]command{
		"help": {
			short: "Lists all available commands",
			help:  "help [command]\nWith no argument lists every command. With a command name prints its usage.",
		},
		"info":                       {short: "Get the block server's info", help: "info\nShows the block server version, vendor, chain and tip height.", run: cmdInfo},
		"height":                     {short: "Get the latest synced block height", help: "height\nShows the height the wallet has scanned up to.", run: cmdHeight},
		"balance":                    {short: "Show the wallet balance", help: "balance\nShows verified, unverified, spendable and unconfirmed balances, per address.", run: cmdBalance},
		"spendablebalance":           {short: "Show the spendable balance", help: "spendablebalance\nShows funds with enough confirmations to be sent.", run: cmdSpendableBalance},
		"addresses":                  {short: "List wallet addresses", help: "addresses\nLists derived and watch-only addresses.", run: cmdAddresses},
		"new":                        {short: "Create a new address", help: "new [t]\nDerives the next transparent address from the seed.", run: cmdNew},
		"seed":                       {short: "Show the seed phrase", help: "seed\nShows the wallet seed phrase and birthday. Fails while the wallet is locked.", run: cmdSeed},
		"sync":                       {short: "Download and scan new blocks", help: "sync\nScans every block from the last synced height to the chain tip.", run: cmdSync},
		"syncstatus":                 {short: "Show the sync progress", help: "syncstatus\nShows the progress of the running or last sync.", run: cmdSyncStatus},
		"rescan":                     {short: "Rescan the wallet from its birthday", help: "rescan\nForgets scanned history and scans again from the wallet birthday.", run: cmdRescan},
		"import":                     {short: "Import a watch-only address", help: "import <address>[,birthday] | {\"address\":...,\"birthday\":...}\nAdds a watch-only address and rescans.", run: cmdImport},
		"interrupt_sync_after_batch": {short: "Stop a running sync after the current batch", help: "interrupt_sync_after_batch <true|false>\nAsks a running sync to stop once its current batch is scanned.", run: cmdInterrupt},
		"list":                       {short: "List transactions", help: "list\nLists confirmed and unconfirmed transactions touching the wallet.", run: cmdList},
		"notes":                      {short: "List notes", help: "notes [all]\nLists unspent and pending notes. With 'all' includes spent notes.", run: cmdNotes},
		"send":                       {short: "Send funds", help: "send <address> <amount> | [{\"address\":...,\"amount\":...}]\nBuilds, broadcasts and records a transaction.", run: cmdSend},
		"save":                       {short: "Save the wallet to disk", help: "save\nWrites the wallet file.", run: cmdSave},
		"clear":                      {short: "Clear scanned history", help: "clear\nForgets scanned history without rescanning.", run: cmdClear},
		"delete":                     {short: "Delete the wallet file", help: "delete\nRemoves the wallet file. The session should be deinitialized afterwards.", run: cmdDelete},
		"wallet_kind":                {short: "Show what kind of wallet is loaded", help: "wallet_kind\nShows whether the wallet is backed by a seed.", run: cmdWalletKind},
		"encrypt":                    {short: "Encrypt the seed with a password", help: "encrypt <password>\nEncrypts the seed at rest and locks the wallet.", run: cmdEncrypt},
		"decrypt":                    {short: "Remove seed encryption", help: "decrypt <password>\nPermanently removes encryption from the wallet file.", run: cmdDecrypt},
		"unlock":                     {short: "Unlock an encrypted wallet", help: "unlock <password>\nDecrypts the seed into memory for this session.", run: cmdUnlock},
		"lock":                       {short: "Lock an encrypted wallet", help: "lock\nWipes the decrypted seed from memory.", run: cmdLock},
		"encryptionstatus":           {short: "Show encryption status", help: "encryptionstatus\nShows whether the wallet is encrypted and locked.", run: cmdEncryptionStatus},
	}
}

// Commands returns the sorted names of every command Execute understands.
func Commands() []string {
	table := commandTable()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a wallet command and returns its textual result: JSON for
// data, plain text for help, "Error: ..." on failure.
func (c *Client) Execute(name string, args []string) string {
	if c.closed.Load() {
		return errorPrefix + "light client is closed"
	}

	table := commandTable()
	cmd, ok := table[name]
	if !ok {
		msg := fmt.Sprintf("Unknown command '%s'", name)
		if s := closest(name, Commands(), maxCommandSuggestionDistance); s != "" {
			msg += fmt.Sprintf(". Did you mean '%s'?", s)
		}
		return errorPrefix + msg
	}

	if name == "help" {
		return help(table, args)
	}

	result, err := cmd.run(c.ctx, c, args)
	if err != nil {
		c.logger.Debug("command failed", zap.String("command", name), zap.Error(err))
		return errorPrefix + describe(err)
	}
	return render(result)
}

func help(table map[string]command, args []string) string {
	if len(args) > 0 {
		cmd, ok := table[args[0]]
		if !ok {
			return errorPrefix + fmt.Sprintf("Unknown command '%s'", args[0])
		}
		return cmd.help
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range Commands() {
		fmt.Fprintf(&b, "%s - %s\n", name, table[name].short)
	}
	return b.String()
}

// describe flattens err and appends any suggestion.
func describe(err error) string {
	msg := err.Error()
	if s := bridgeerr.Suggestion(err); s != "" {
		msg += " (" + s + ")"
	}
	return msg
}

func render(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorPrefix + fmt.Sprintf("encoding result: %v", err)
	}
	return string(data)
}

type successResult struct {
	Result string `json:"result"`
}

//nolint:gochecknoglobals // Immutable reply shared by commands with no payload
var success = successResult{Result: "success"}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return bridgeerr.WithSuggestion(
			bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{
				"args": strconv.Itoa(len(args)),
			}),
			"usage: "+usage,
		)
	}
	return nil
}

type infoResult struct {
	Version           string `json:"version"`
	Vendor            string `json:"vendor"`
	ChainName         string `json:"chain_name"`
	LatestBlockHeight uint64 `json:"latest_block_height"`
	ServerURI         string `json:"server_uri"`
}

func cmdInfo(ctx context.Context, c *Client, _ []string) (any, error) {
	info, err := c.source.Info(ctx)
	if err != nil {
		return nil, err
	}
	return infoResult{
		Version:           info.Version,
		Vendor:            info.Vendor,
		ChainName:         info.ChainName,
		LatestBlockHeight: info.BlockHeight,
		ServerURI:         c.cfg.ServerURI,
	}, nil
}

func cmdHeight(_ context.Context, c *Client, _ []string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]uint64{"height": c.wallet.syncedHeight}, nil
}

type addressBalance struct {
	Address   string `json:"address"`
	Balance   uint64 `json:"balance"`
	WatchOnly bool   `json:"watch_only,omitempty"`
}

type balanceResult struct {
	Balance
	Addresses []addressBalance `json:"t_addresses"`
}

func cmdBalance(_ context.Context, c *Client, _ []string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := balanceResult{
		Balance:   c.wallet.balance(),
		Addresses: make([]addressBalance, 0, len(c.wallet.addresses)),
	}
	for _, a := range c.wallet.addresses {
		ab := addressBalance{Address: a.Address, WatchOnly: a.WatchOnly}
		for i := range c.wallet.notes {
			n := &c.wallet.notes[i]
			if n.Address == a.Address && n.SpentTxID == "" {
				ab.Balance += n.Value
			}
		}
		res.Addresses = append(res.Addresses, ab)
	}
	return res, nil
}

func cmdSpendableBalance(_ context.Context, c *Client, _ []string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]uint64{"spendable_balance": c.wallet.balance().Spendable}, nil
}

type addressesResult struct {
	Addresses []string `json:"t_addresses"`
	WatchOnly []string `json:"watch_only,omitempty"`
}

func cmdAddresses(_ context.Context, c *Client, _ []string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := addressesResult{Addresses: []string{}}
	for _, a := range c.wallet.addresses {
		if a.WatchOnly {
			res.WatchOnly = append(res.WatchOnly, a.Address)
			continue
		}
		res.Addresses = append(res.Addresses, a.Address)
	}
	return res, nil
}

func cmdNew(_ context.Context, c *Client, args []string) (any, error) {
	if len(args) > 1 || (len(args) == 1 && args[0] != "t") {
		return nil, bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "only transparent ('t') addresses are supported")
	}

	c.mu.Lock()
	if c.wallet.locked() {
		c.mu.Unlock()
		return nil, bridgeerr.ErrWalletLocked
	}
	index := c.wallet.nextIndex()
	addr, err := deriveAddress(string(c.wallet.seed), c.cfg.Chain, index)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.wallet.addresses = append(c.wallet.addresses, Address{Address: addr, Index: index})
	c.mu.Unlock()

	if err := c.save(); err != nil {
		return nil, err
	}
	return []string{addr}, nil
}

type seedResult struct {
	Seed     string `json:"seed"`
	Birthday uint64 `json:"birthday"`
}

func cmdSeed(_ context.Context, c *Client, _ []string) (any, error) {
	phrase, err := c.SeedPhrase()
	if err != nil {
		return nil, err
	}
	return seedResult{Seed: phrase, Birthday: c.Birthday()}, nil
}

func cmdSync(ctx context.Context, c *Client, _ []string) (any, error) {
	return c.Sync(ctx)
}

func cmdRescan(ctx context.Context, c *Client, _ []string) (any, error) {
	return c.Rescan(ctx)
}

func cmdSyncStatus(_ context.Context, c *Client, _ []string) (any, error) {
	return c.Status(), nil
}

func cmdInterrupt(_ context.Context, c *Client, args []string) (any, error) {
	if err := requireArgs(args, 1, "interrupt_sync_after_batch <true|false>"); err != nil {
		return nil, err
	}
	interrupt, err := strconv.ParseBool(args[0])
	if err != nil {
		return nil, bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"value": args[0]})
	}
	c.InterruptSyncAfterBatch(interrupt)
	return success, nil
}

func cmdList(_ context.Context, c *Client, _ []string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	txs := make([]TxRecord, 0, len(c.wallet.txs)+len(c.wallet.pending))
	txs = append(txs, c.wallet.txs...)
	for txid, value := range c.wallet.pending {
		txs = append(txs, TxRecord{TxID: txid, Amount: int64(value), Unconfirmed: true}) //nolint:gosec // amounts fit in int64
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Unconfirmed != txs[j].Unconfirmed {
			return !txs[i].Unconfirmed
		}
		if txs[i].Height != txs[j].Height {
			return txs[i].Height < txs[j].Height
		}
		return txs[i].TxID < txs[j].TxID
	})
	return txs, nil
}

type notesResult struct {
	Unspent []Note `json:"unspent_notes"`
	Pending []Note `json:"pending_notes"`
	Spent   []Note `json:"spent_notes,omitempty"`
}

func cmdNotes(_ context.Context, c *Client, args []string) (any, error) {
	all := len(args) == 1 && args[0] == "all"
	if len(args) > 0 && !all {
		return nil, bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "usage: notes [all]")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	res := notesResult{Unspent: []Note{}, Pending: []Note{}}
	for _, n := range c.wallet.notes {
		switch {
		case n.SpentTxID == "":
			res.Unspent = append(res.Unspent, n)
		case n.SpentHeight == 0:
			res.Pending = append(res.Pending, n)
		case all:
			res.Spent = append(res.Spent, n)
		}
	}
	return res, nil
}

func cmdSave(_ context.Context, c *Client, _ []string) (any, error) {
	if err := c.save(); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdClear(_ context.Context, c *Client, _ []string) (any, error) {
	c.syncMu.Lock()
	c.mu.Lock()
	c.wallet.resetChain()
	c.mu.Unlock()
	c.syncMu.Unlock()

	if err := c.save(); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdDelete(_ context.Context, c *Client, _ []string) (any, error) {
	if err := c.deleteWallet(); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdWalletKind(_ context.Context, _ *Client, _ []string) (any, error) {
	return map[string]string{"kind": "Seeded"}, nil
}
