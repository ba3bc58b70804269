package recordstore

import (
	"context"

	"formgateway/internal/model"
)

// PageFunc fetches the next page. more reports whether another page may follow.
type PageFunc func(ctx context.Context) (records []model.Record, more bool, err error)

// Pager walks a list operation one page at a time. It is finite and cannot be
// restarted; ask the store for a new Pager to list again.
type Pager struct {
	fetch PageFunc
	page  []model.Record
	err   error
	done  bool
}

func NewPager(fetch PageFunc) *Pager {
	return &Pager{fetch: fetch}
}

// StaticPager yields records as a single page.
func StaticPager(records []model.Record) *Pager {
	return NewPager(func(context.Context) ([]model.Record, bool, error) {
		return records, false, nil
	})
}

// FailedPager fails on the first call to Next.
func FailedPager(err error) *Pager {
	return NewPager(func(context.Context) ([]model.Record, bool, error) {
		return nil, false, err
	})
}

// Next fetches the next page and reports whether one was produced.
func (p *Pager) Next(ctx context.Context) bool {
	p.page = nil
	if p.done {
		return false
	}
	if err := ctx.Err(); err != nil {
		p.err = err
		p.done = true
		return false
	}

	records, more, err := p.fetch(ctx)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}

	p.page = records
	p.done = !more
	return true
}

// Page returns the records of the page produced by the last Next.
func (p *Pager) Page() []model.Record {
	return p.page
}

func (p *Pager) Err() error {
	return p.err
}

// Drain consumes every remaining page.
func Drain(ctx context.Context, p *Pager) ([]model.Record, error) {
	var records []model.Record
	for p.Next(ctx) {
		records = append(records, p.Page()...)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
