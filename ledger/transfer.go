package ledger

import (
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// Processor performs transfers over the Ledger.
type Processor struct {
	log    *zap.Logger
	pub    Publisher
	ledger *Ledger
}

// Option configures Processor.
type Option func(*Processor)

// WithLogger sets logger of the Processor. Nop logger is used by default.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProcessor constructs Processor of the given Ledger. Nil Publisher
// drops all notifications.
func NewProcessor(l *Ledger, pub Publisher, opts ...Option) *Processor {
	if pub == nil {
		pub = nopPublisher{}
	}

	p := &Processor{
		log:    zap.NewNop(),
		pub:    pub,
		ledger: l,
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

// Construct creates new Ledger with the whole supply allocated to the owner
// and publishes the genesis notification. Returns Processor of the created
// Ledger.
func Construct(supply *uint256.Int, owner util.Uint160, pub Publisher, opts ...Option) *Processor {
	p := NewProcessor(New(supply, owner), pub, opts...)

	p.ledger.mtx.Lock()
	defer p.ledger.mtx.Unlock()

	to := owner
	p.pub.Publish(Notification{
		To:     &to,
		Amount: *supply,
	})

	p.log.Debug("ledger constructed",
		zap.String("owner", owner.StringLE()),
		zap.Stringer("supply", supply.ToBig()))

	return p
}

// Ledger returns the Ledger transfers are performed over.
func (p *Processor) Ledger() *Ledger {
	return p.ledger
}

// Transfer moves amount of tokens from one account to another. The caller is
// responsible for authenticating `from`.
//
// Transfer returns false if `from` does not hold enough tokens, nothing is
// changed and published then. Otherwise, both balances are updated at once
// and a notification is published. Zero amounts and transfers to itself are
// allowed.
func (p *Processor) Transfer(from, to util.Uint160, amount *uint256.Int) bool {
	l := p.ledger

	l.mtx.Lock()
	defer l.mtx.Unlock()

	fromBalance := l.balanceOf(from)
	if fromBalance.Lt(amount) {
		p.log.Debug("not enough assets",
			zap.String("from", from.StringLE()),
			zap.Stringer("balance", fromBalance.ToBig()),
			zap.Stringer("amount", amount.ToBig()))
		return false
	}

	l.setBalance(from, fromBalance.Sub(fromBalance, amount))

	// read after the debit: from and to may be the same account. Conservation
	// bounds the result by the total supply, so it can't overflow.
	toBalance := l.balanceOf(to)
	l.setBalance(to, toBalance.Add(toBalance, amount))

	_from, _to := from, to
	p.pub.Publish(Notification{
		From:   &_from,
		To:     &_to,
		Amount: *amount,
	})

	return true
}
