package weavetest

import "github.com/iov-one/custody"

// Decorator is a pass-through custody.Decorator that counts its calls and
// records the path of every message it sees. A configured error stops the
// chain before the next handler is called.
type Decorator struct {
	CheckErr   error
	DeliverErr error

	checkCall   int
	deliverCall int
	paths       []string
}

var _ custody.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	d.checkCall++
	d.record(tx)
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	d.deliverCall++
	d.record(tx)
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// record stores the message path, or an empty string when the request
// carries no readable message.
func (d *Decorator) record(tx custody.Tx) {
	var path string
	if msg, err := tx.GetMsg(); err == nil && msg != nil {
		path = msg.Path()
	}
	d.paths = append(d.paths, path)
}

// Paths returns the message paths of all calls, in call order.
func (d *Decorator) Paths() []string {
	return d.paths
}

func (d *Decorator) CheckCallCount() int   { return d.checkCall }
func (d *Decorator) DeliverCallCount() int { return d.deliverCall }
func (d *Decorator) CallCount() int        { return d.checkCall + d.deliverCall }

// Decorate returns a handler that calls h through d.
func Decorate(h custody.Handler, d custody.Decorator) custody.Handler {
	return decorated{handler: h, decorator: d}
}

type decorated struct {
	handler   custody.Handler
	decorator custody.Decorator
}

func (d decorated) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return d.decorator.Check(ctx, db, tx, d.handler)
}

func (d decorated) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	return d.decorator.Deliver(ctx, db, tx, d.handler)
}
