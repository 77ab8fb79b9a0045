// Package memmap draws the peripherals of a device as a graph: the device
// owns its groups, groups own peripherals, and a derived peripheral
// points at its base.
package memmap

import (
	"fmt"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"svddoc/internal/sysdec"
)

// NodeName is how a peripheral appears in the graph.
func NodeName(p *sysdec.PeripheralDef) string {
	return fmt.Sprintf("%s @0x%08x", p.Name, p.BaseAddress)
}

func groupNode(name string) string {
	return "group " + name
}

func Graph(dev *sysdec.DeviceDef) *lattice.Graph {
	g := &lattice.Graph{}
	seen := map[string]bool{}
	addNode := func(name string) bool {
		if seen[name] {
			return false
		}
		seen[name] = true
		g.Nodes = append(g.Nodes, name)
		return true
	}
	root := dev.Name
	if root == "" {
		root = "device"
	}
	addNode(root)

	byName := map[string]*sysdec.PeripheralDef{}
	for _, p := range dev.Peripheral {
		byName[p.Name] = p
	}
	for _, p := range dev.Peripheral {
		node := NodeName(p)
		addNode(node)
		owner := root
		if p.GroupName != "" {
			owner = groupNode(p.GroupName)
			if addNode(owner) {
				g.Edges = append(g.Edges, lattice.Edge{Caller: root, Callee: owner})
			}
		}
		g.Edges = append(g.Edges, lattice.Edge{Caller: owner, Callee: node})
		if base, ok := byName[p.DerivedFrom]; ok {
			g.Edges = append(g.Edges, lattice.Edge{Caller: node, Callee: NodeName(base)})
		}
	}
	return g
}

// DOT renders the graph of dev in graphviz syntax.
func DOT(dev *sysdec.DeviceDef) string {
	return render.DOT(Graph(dev), dev.Name)
}
