// Package interactive provides the interactive command-line interface
// for mesh-node.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lucamoroz/mesh-go/internal/sim"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/node"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// ConsoleAddress is the unicast address the console sends from.
const ConsoleAddress model.Address = 0x7FFE

// Console drives the nodes of a simulated mesh from the keyboard.
type Console struct {
	mesh *sim.Mesh
	port *mesh.Port
	rl   *readline.Instance
	out  io.Writer
	tid  uint8
}

// New attaches a console port to the mesh and opens the line editor.
func New(m *sim.Mesh) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mesh> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(m, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(m *sim.Mesh, out io.Writer) *Console {
	port := m.Network().Attach(m.Context(), mesh.PortConfig{Name: "console"})
	port.SetAddresses(ConsoleAddress)
	return &Console{mesh: m, port: port, out: out}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	defer c.port.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if c.Execute(ctx, line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether it asked to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "nodes", "state", "s":
		err = c.cmdState(args)
	case "click", "c":
		err = c.cmdClick(args)
	case "gas":
		err = c.cmdGas(args)
	case "thp":
		err = c.cmdTHP(ctx, args)
	case "onoff":
		err = c.cmdOnOff(ctx, args)
	case "pub":
		err = c.cmdPub(args)
	case "attention":
		err = c.cmdAttention(args)
	case "pin":
		err = c.cmdPin(ctx, args)
	case "provision":
		err = c.cmdProvision(args)
	case "reset":
		err = c.cmdReset(ctx, args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		return false
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Mesh Node Commands:
  Nodes:
    state [node]                    - Show nodes, addresses, LED and model state
    provision <node> <addr>         - Assign addresses starting at addr
    reset <node>                    - Unprovision the node
    pub <node> <elem> <model> <addr> [ttl]
                                    - Set a model publication

  Peripherals:
    click <node> [short|long|longlong] - Simulate a button click
    gas <node> <ppm>                - Raise the gas threshold interrupt
    thp <node> <t> <h> <p>          - Set THP readings and publish them
    attention <node> on|off         - Start or stop the attention indication
    pin <node> <n>                  - Show a provisioning number on the LED

  Messages:
    onoff <addr> 0|1                - Send OnOff Set Unacknowledged from the console

  General:
    help                            - Show this help
    quit                            - Exit

  A node is a name (light, switch-2), a unique role, or an element address.`)
}

var errUsage = errors.New("wrong number of arguments (type 'help' for usage)")

func (c *Console) lookup(args []string, n int) (*sim.Member, error) {
	if len(args) < n {
		return nil, errUsage
	}
	return c.mesh.Lookup(args[0])
}

func (c *Console) cmdState(args []string) error {
	members := c.mesh.Members()
	if len(args) > 0 {
		mb, err := c.mesh.Lookup(args[0])
		if err != nil {
			return err
		}
		members = []*sim.Member{mb}
	}

	for _, mb := range members {
		n := mb.Node
		fmt.Fprintf(c.out, "%-10s %-7s", mb.Name, n.Role())
		if addrs := n.Addresses(); len(addrs) > 0 {
			strs := make([]string, len(addrs))
			for i, a := range addrs {
				strs[i] = a.String()
			}
			fmt.Fprintf(c.out, " %s", strings.Join(strs, ","))
		} else {
			fmt.Fprint(c.out, " unprovisioned")
		}
		fmt.Fprintf(c.out, "  led=%s", n.LED().Current())

		s := n.Snapshot()
		if s.OnOff != nil {
			fmt.Fprintf(c.out, " onoff=%t", *s.OnOff)
		}
		if s.HSL != nil {
			fmt.Fprintf(c.out, " hsl=%d/%d/%d", s.HSL.Hue, s.HSL.Saturation, s.HSL.Lightness)
		}
		if n.Role() == node.RoleProxy {
			alarm, flagged := n.Alarm()
			fmt.Fprintf(c.out, " alarm=%s", alarm)
			if len(flagged) > 0 {
				fmt.Fprintf(c.out, " flagged=%v", flagged)
			}
		}
		fmt.Fprintln(c.out)

		for key, pub := range s.Publications {
			fmt.Fprintf(c.out, "    pub %s -> %s ttl=%d\n", key, model.Address(pub.Address), pub.TTL)
		}
	}
	return nil
}

func parseClick(s string) (gesture.Click, error) {
	switch strings.ToLower(s) {
	case "", "short":
		return gesture.Short, nil
	case "long":
		return gesture.Long, nil
	case "longlong", "long-long", "long_long":
		return gesture.LongLong, nil
	default:
		return 0, fmt.Errorf("invalid click: %s (must be short, long, or longlong)", s)
	}
}

func (c *Console) cmdClick(args []string) error {
	mb, err := c.lookup(args, 1)
	if err != nil {
		return err
	}
	kind := ""
	if len(args) > 1 {
		kind = args[1]
	}
	click, err := parseClick(kind)
	if err != nil {
		return err
	}
	if !mb.Node.Click(click) {
		fmt.Fprintf(c.out, "%s busy, click dropped\n", mb.Name)
		return nil
	}
	fmt.Fprintf(c.out, "%s click on %s\n", click, mb.Name)
	return nil
}

func (c *Console) cmdGas(args []string) error {
	mb, err := c.lookup(args, 2)
	if err != nil {
		return err
	}
	ppm, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid ppm: %s", args[1])
	}
	if mb.Sensors != nil {
		mb.Sensors.SetGas(uint16(ppm))
	}
	return mb.Node.GasTrigger(uint16(ppm))
}

func (c *Console) cmdTHP(ctx context.Context, args []string) error {
	mb, err := c.lookup(args, 4)
	if err != nil {
		return err
	}
	if mb.Sensors == nil {
		return node.ErrNotSupported
	}
	var v [3]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(args[i+1], 64); err != nil {
			return fmt.Errorf("invalid reading: %s", args[i+1])
		}
	}
	mb.Sensors.SetTHP(v[0], v[1], v[2])
	return mb.Node.PublishSensors(ctx)
}

func parseAddress(s string) (model.Address, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	return model.Address(v), nil
}

func (c *Console) cmdOnOff(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	dst, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	on, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid state: %s", args[1])
	}

	c.tid++
	access, err := wire.NewMessage(wire.OpOnOffSetUnack, wire.EncodeOnOffSet(wire.OnOffSet{On: on, TID: c.tid}))
	if err != nil {
		return err
	}
	sc := mesh.SendContext{Src: ConsoleAddress, Dst: dst, TTL: model.DefaultTTL}
	if err := c.port.Send(ctx, sc, access); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "onoff %t sent to %s (tid %d)\n", on, dst, c.tid)
	return nil
}

func (c *Console) cmdPub(args []string) error {
	mb, err := c.lookup(args, 4)
	if err != nil {
		return err
	}
	element, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid element: %s", args[1])
	}
	id, ok := model.ParseModelID(args[2])
	if !ok {
		return fmt.Errorf("unknown model: %s", args[2])
	}
	addr, err := parseAddress(args[3])
	if err != nil {
		return err
	}
	ttl := uint64(model.DefaultTTL)
	if len(args) > 4 {
		if ttl, err = strconv.ParseUint(args[4], 10, 7); err != nil {
			return fmt.Errorf("invalid ttl: %s", args[4])
		}
	}

	pub := model.Publication{Address: addr, TTL: uint8(ttl)}
	if err := mb.Node.SetPublication(element, id, pub); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s element %d %s publishes to %s\n", mb.Name, element, id, addr)
	return nil
}

func (c *Console) cmdAttention(args []string) error {
	mb, err := c.lookup(args, 2)
	if err != nil {
		return err
	}
	switch strings.ToLower(args[1]) {
	case "on":
		return mb.Node.AttentionOn()
	case "off":
		return mb.Node.AttentionOff()
	default:
		return fmt.Errorf("invalid attention state: %s (must be on or off)", args[1])
	}
}

func (c *Console) cmdPin(ctx context.Context, args []string) error {
	mb, err := c.lookup(args, 2)
	if err != nil {
		return err
	}
	pin, err := strconv.Atoi(args[1])
	if err != nil || pin < 0 {
		return fmt.Errorf("invalid pin: %s", args[1])
	}
	return mb.Node.OutputPIN(ctx, pin)
}

func (c *Console) cmdProvision(args []string) error {
	mb, err := c.lookup(args, 2)
	if err != nil {
		return err
	}
	addr, err := parseAddress(args[1])
	if err != nil {
		return err
	}
	return mb.Node.Provision(addr)
}

func (c *Console) cmdReset(ctx context.Context, args []string) error {
	mb, err := c.lookup(args, 1)
	if err != nil {
		return err
	}
	return mb.Node.Reset(ctx)
}
