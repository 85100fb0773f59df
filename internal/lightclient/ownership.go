package lightclient

import "sync"

// fileOwners records which client may write each wallet file. A client that
// creates or loads a wallet takes the file over; an earlier client for the
// same path keeps running from memory but stops persisting.
type fileOwners struct {
	mu     sync.Mutex
	owners map[string]*Client
}

func newFileOwners() *fileOwners {
	return &fileOwners{owners: make(map[string]*Client)}
}

// claim makes c the owner of path.
func (o *fileOwners) claim(path string, c *Client) {
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owners[path] = c
}

// write runs fn if c owns path, or unconditionally when claim is set, in
// which case c owns path once fn succeeds. It reports whether fn ran.
func (o *fileOwners) write(path string, c *Client, claim bool, fn func() error) (bool, error) {
	if o == nil {
		return true, fn()
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if owner, ok := o.owners[path]; !claim && ok && owner != c {
		return false, nil
	}
	if err := fn(); err != nil {
		return true, err
	}
	if claim {
		o.owners[path] = c
	}
	return true, nil
}
