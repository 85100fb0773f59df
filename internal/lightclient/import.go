package lightclient

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

type importRequest struct {
	Address  string `json:"address"`
	Birthday uint64 `json:"birthday"`
}

// parseImport accepts "address", "address,birthday" or a JSON object.
func parseImport(arg string) (importRequest, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "{") {
		var req importRequest
		if err := json.Unmarshal([]byte(arg), &req); err != nil {
			return importRequest{}, bridgeerr.Wrap(bridgeerr.ErrInvalidInput, "parsing import request: %v", err)
		}
		return req, nil
	}

	address, birthday, found := strings.Cut(arg, ",")
	req := importRequest{Address: strings.TrimSpace(address)}
	if found {
		b, err := strconv.ParseUint(strings.TrimSpace(birthday), 10, 64)
		if err != nil {
			return importRequest{}, bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"birthday": birthday})
		}
		req.Birthday = b
	}
	return req, nil
}

func cmdImport(ctx context.Context, c *Client, args []string) (any, error) {
	if err := requireArgs(args, 1, "import <address>[,birthday]"); err != nil {
		return nil, err
	}
	req, err := parseImport(args[0])
	if err != nil {
		return nil, err
	}
	if err := c.ImportWatchOnly(req.Address, req.Birthday); err != nil {
		return nil, err
	}
	return c.Rescan(ctx)
}

// ImportWatchOnly adds address as a watch-only address seen from birthday.
// Funds on it count toward the balance but are never spent.
func (c *Client) ImportWatchOnly(address string, birthday uint64) error {
	if err := ValidateAddress(c.cfg.Chain, address); err != nil {
		return err
	}

	c.mu.Lock()
	if _, ok := c.wallet.owns(address); ok {
		c.mu.Unlock()
		return bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"address": address, "reason": "already in wallet"})
	}
	c.wallet.addresses = append(c.wallet.addresses, Address{Address: address, WatchOnly: true, Birthday: birthday})
	c.mu.Unlock()

	c.logger.Info("watch-only address imported", zap.String("address", address), zap.Uint64("birthday", birthday))
	return c.save()
}
