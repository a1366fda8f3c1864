package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart(t *testing.T) {
	c := NewCart("a")
	var changes []string
	sub := c.Watch(func(attr string) { changes = append(changes, attr) })
	defer sub.Unsubscribe()

	c.Add("apple", 2, 1.5)
	c.Add("apple", 1, 2)
	c.Add("pear", 1, 0.5)
	assert.InDelta(t, 6.5, c.Total(), 1e-9)
	assert.Equal(t, []Line{{"apple", 3, 2}, {"pear", 1, 0.5}}, c.Lines())

	require.NoError(t, c.Remove("apple"))
	assert.ErrorIs(t, c.Remove("kiwi"), ErrUnknownItem)
	assert.InDelta(t, 0.5, c.Total(), 1e-9)
	assert.Equal(t, []string{"Total", "Total", "Total", "Total"}, changes)
}

func TestViewModel_TotalFollowsSelection(t *testing.T) {
	vm, err := NewViewModel([]string{"a", "b"})
	require.NoError(t, err)
	defer vm.Close()

	var totals []float64
	sub := vm.Total.Subscribe(func(v float64) { totals = append(totals, v) })
	defer sub.Unsubscribe()

	steps := []Step{
		{Command: CommandAdd, Item: "apple", Qty: 2, Price: 1.5},
		{Command: CommandSwitch, Cart: "b"},
		{Command: CommandAdd, Item: "milk", Qty: 1, Price: 1, Cart: "a"},
		{Command: CommandAdd, Item: "bread", Qty: 1, Price: 4},
	}
	for _, s := range steps {
		require.NoError(t, vm.Apply(s))
	}

	// The change to cart a after the switch is not reported.
	assert.Equal(t, []float64{3, 0, 4}, totals)
	assert.Equal(t, 4.0, vm.Total.Get())
	assert.Equal(t, map[string]float64{"a": 4, "b": 4}, vm.Totals())

	a, ok := vm.Cart("a")
	require.True(t, ok)
	assert.Equal(t, 0, a.Watchers(), "deselected cart still watched")
}

func TestViewModel_Errors(t *testing.T) {
	_, err := NewViewModel(nil)
	assert.ErrorIs(t, err, ErrUnknownCart)

	vm, err := NewViewModel([]string{"a"})
	require.NoError(t, err)
	defer vm.Close()

	assert.ErrorIs(t, vm.Apply(Step{Command: CommandSwitch, Cart: "z"}), ErrUnknownCart)
	assert.ErrorIs(t, vm.Apply(Step{Command: CommandAdd, Item: "x", Qty: 1, Cart: "z"}), ErrUnknownCart)
	assert.ErrorIs(t, vm.Apply(Step{Command: CommandRemove, Item: "x"}), ErrUnknownItem)
	assert.ErrorIs(t, vm.Apply(Step{Command: "checkout"}), ErrUnknownCommand)
}

func TestViewModel_CloseDetaches(t *testing.T) {
	vm, err := NewViewModel([]string{"a"})
	require.NoError(t, err)

	a, _ := vm.Cart("a")
	assert.Equal(t, 1, a.Watchers())
	vm.Close()
	assert.Equal(t, 0, a.Watchers())
}
