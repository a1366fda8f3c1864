package scenario

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/lguimbarda/min-rx/flow/binding"
	"github.com/lguimbarda/min-rx/flow/core"
)

var (
	ErrUnknownCart = errors.New("unknown cart")
	ErrUnknownItem = errors.New("unknown item")
)

// Line is one item in a cart.
type Line struct {
	Item  string
	Qty   int
	Price float64
}

// Cart is an observable host: it reports "Total" whenever its contents
// change.
type Cart struct {
	core.Observable

	name  string
	mu    sync.RWMutex
	lines map[string]Line
}

// NewCart creates an empty cart.
func NewCart(name string) *Cart {
	return &Cart{name: name, lines: make(map[string]Line)}
}

func (c *Cart) Name() string { return c.name }

// Total is the sum of qty*price over every line.
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.SumBy(lo.Values(c.lines), func(l Line) float64 {
		return float64(l.Qty) * l.Price
	})
}

// Lines returns the lines sorted by item.
func (c *Cart) Lines() []Line {
	c.mu.RLock()
	lines := lo.Values(c.lines)
	c.mu.RUnlock()
	sort.Slice(lines, func(i, j int) bool { return lines[i].Item < lines[j].Item })
	return lines
}

// Add adds qty of item. The latest price wins.
func (c *Cart) Add(item string, qty int, price float64) {
	c.mu.Lock()
	line := c.lines[item]
	line.Item = item
	line.Qty += qty
	line.Price = price
	c.lines[item] = line
	c.mu.Unlock()

	c.Changed("Total")
}

// Remove drops item from the cart.
func (c *Cart) Remove(item string) error {
	c.mu.Lock()
	if _, ok := c.lines[item]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w %q in cart %q", ErrUnknownItem, item, c.name)
	}
	delete(c.lines, item)
	c.mu.Unlock()

	c.Changed("Total")
	return nil
}

// ViewModel owns the carts, the selected cart and a Total binding that
// follows the selection.
type ViewModel struct {
	carts map[string]*Cart

	// Current is the selected cart.
	Current *binding.Value[*Cart]
	// Total is the total of the selected cart. It rebinds when Current
	// changes.
	Total binding.Binding[float64]
}

// NewViewModel creates a view-model over the named carts and selects the
// first one.
func NewViewModel(names []string) (*ViewModel, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no carts", ErrUnknownCart)
	}
	carts := lo.SliceToMap(names, func(name string) (string, *Cart) {
		return name, NewCart(name)
	})
	current := binding.NewValue(carts[names[0]])
	total, err := binding.Path[*Cart, float64](current, "Total")
	if err != nil {
		return nil, err
	}
	return &ViewModel{carts: carts, Current: current, Total: total}, nil
}

// Cart returns the named cart.
func (vm *ViewModel) Cart(name string) (*Cart, bool) {
	c, ok := vm.carts[name]
	return c, ok
}

// Totals returns the total of every cart by name.
func (vm *ViewModel) Totals() map[string]float64 {
	return lo.MapValues(vm.carts, func(c *Cart, _ string) float64 { return c.Total() })
}

// Apply carries out a validated step.
func (vm *ViewModel) Apply(s Step) error {
	switch s.Command {
	case CommandSwitch:
		c, ok := vm.carts[s.Cart]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownCart, s.Cart)
		}
		return vm.Current.Set(c)
	case CommandAdd:
		c, err := vm.target(s)
		if err != nil {
			return err
		}
		c.Add(s.Item, s.Qty, s.Price)
		return nil
	case CommandRemove:
		c, err := vm.target(s)
		if err != nil {
			return err
		}
		return c.Remove(s.Item)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, s.Command)
	}
}

func (vm *ViewModel) target(s Step) (*Cart, error) {
	if s.Cart == "" {
		return vm.Current.Get(), nil
	}
	c, ok := vm.carts[s.Cart]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCart, s.Cart)
	}
	return c, nil
}

// Close releases the Total binding.
func (vm *ViewModel) Close() {
	vm.Total.Unbind()
}
