package ledger

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Notification describes completed balance change. From is nil only for the
// genesis notification produced at construction.
type Notification struct {
	From   *util.Uint160
	To     *util.Uint160
	Amount uint256.Int
}

// IsGenesis checks whether n describes initial allocation of the supply.
func (n Notification) IsGenesis() bool {
	return n.From == nil
}

// Publisher delivers notifications to the outside world. Publish is called
// while the ledger is locked, so implementations must not access the Ledger
// the notification came from.
type Publisher interface {
	Publish(Notification)
}

// PublisherFunc is a functional Publisher.
type PublisherFunc func(Notification)

// Publish implements Publisher.
func (f PublisherFunc) Publish(n Notification) {
	f(n)
}

// Journal is an append-only in-memory Publisher.
type Journal struct {
	mtx sync.Mutex
	ns  []Notification
}

// Publish implements Publisher.
func (j *Journal) Publish(n Notification) {
	j.mtx.Lock()
	j.ns = append(j.ns, n)
	j.mtx.Unlock()
}

// Notifications returns copy of all notifications published so far.
func (j *Journal) Notifications() []Notification {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	res := make([]Notification, len(j.ns))
	copy(res, j.ns)

	return res
}

// Len returns number of published notifications.
func (j *Journal) Len() int {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	return len(j.ns)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Notification) {}
