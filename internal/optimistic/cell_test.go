package optimistic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purse struct {
	Balance int
	Items   []int
}

func clonePurse(p purse) purse {
	p.Items = append([]int(nil), p.Items...)
	return p
}

func TestCellUnloaded(t *testing.T) {
	c := NewCell[int](nil)
	_, ok := c.Get()
	assert.False(t, ok)
}

func TestCellRollback(t *testing.T) {
	c := NewCell(clonePurse)
	c.Set(purse{Balance: 100})

	m := c.Begin(func(p purse) purse {
		p.Balance -= 40
		p.Items = append(p.Items, 9)
		return p
	})
	got, _ := c.Get()
	assert.Equal(t, purse{Balance: 60, Items: []int{9}}, got)
	assert.True(t, c.Pending())

	assert.Equal(t, RolledBack, m.Resolve(errors.New("offline")))
	got, _ = c.Get()
	assert.Equal(t, purse{Balance: 100}, got)
	assert.False(t, c.Pending())
}

func TestCellConfirmWithUpdatesConfirmed(t *testing.T) {
	c := NewCell(clonePurse)
	c.Set(purse{Balance: 100})

	m := c.Begin(func(p purse) purse { p.Balance -= 40; return p })
	conf, _ := c.Confirmed()
	assert.Equal(t, 100, conf.Balance)

	assert.Equal(t, Confirmed, m.ConfirmWith(purse{Balance: 60, Items: []int{9}}))
	conf, _ = c.Confirmed()
	assert.Equal(t, purse{Balance: 60, Items: []int{9}}, conf)
}

func TestCellConfirmAdvancesConfirmed(t *testing.T) {
	c := NewCell(clonePurse)
	c.Set(purse{Balance: 100})

	m := c.Begin(func(p purse) purse { p.Balance -= 30; return p })
	assert.Equal(t, Confirmed, m.Confirm())
	conf, _ := c.Confirmed()
	assert.Equal(t, 70, conf.Balance)
}

func TestCellSetMakesMutationStale(t *testing.T) {
	c := NewCell(clonePurse)
	c.Set(purse{Balance: 100})
	m := c.Begin(func(p purse) purse { p.Balance = 0; return p })

	c.Set(purse{Balance: 80})

	assert.Equal(t, Discarded, m.Rollback())
	got, _ := c.Get()
	assert.Equal(t, 80, got.Balance)
}

func TestCellReset(t *testing.T) {
	c := NewCell(clonePurse)
	c.Set(purse{Balance: 10, Items: []int{1}})
	c.Reset()

	got, ok := c.Get()
	assert.False(t, ok)
	assert.Equal(t, purse{}, got)
}

func TestCellBeginIdle(t *testing.T) {
	c := NewCell(clonePurse)
	c.Set(purse{Balance: 100})

	m, ok := c.BeginIdle(func(p purse) purse { p.Balance -= 60; return p })
	require.True(t, ok)
	_, ok = c.BeginIdle(func(p purse) purse { p.Balance -= 30; return p })
	assert.False(t, ok)
	got, _ := c.Get()
	assert.Equal(t, 40, got.Balance)

	assert.Equal(t, RolledBack, m.Rollback())
	got, _ = c.Get()
	assert.Equal(t, 100, got.Balance)
	_, ok = c.BeginIdle(func(p purse) purse { return p })
	assert.True(t, ok)
}

func TestCellAmend(t *testing.T) {
	c := NewCell(clonePurse)
	assert.False(t, c.Amend(func(p purse) purse { return p }), "unloaded")

	c.Set(purse{Balance: 10})
	require.True(t, c.Amend(func(p purse) purse { p.Items = append(p.Items, 7); return p }))
	conf, _ := c.Confirmed()
	assert.Equal(t, []int{7}, conf.Items)

	m := c.Begin(func(p purse) purse { p.Balance = 0; return p })
	assert.False(t, c.Amend(func(p purse) purse { p.Items = nil; return p }))
	assert.Equal(t, Confirmed, m.Confirm(), "amend leaves the pending mutation current")
	got, _ := c.Get()
	assert.Equal(t, []int{7}, got.Items)
}
