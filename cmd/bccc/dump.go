package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/slangbc/bc"
	"github.com/gogpu/slangbc/ir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <container.bc>",
	Short: "Inspect a bytecode container",
	Long:  "Dump traverses a container in place and prints its modules, symbols, constants and types.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var headingColor = color.New(color.FgCyan, color.Bold)

func runDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	arena, header, err := bc.Open(data)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	h := header.Get()
	headingColor.Fprintf(out, "container %s\n", args[0])
	fmt.Fprintf(out, "  version %d, %d modules, %d bytes\n", h.Version, h.ModuleCount, len(data))

	modules := bc.Resolve(arena, h.Modules)
	for i := 0; i < int(h.ModuleCount); i++ {
		module := bc.Resolve(arena, *modules.At(i))
		headingColor.Fprintf(out, "module %d\n", i)
		if module.IsNil() {
			fmt.Fprintf(out, "  <no IR>\n")
			continue
		}
		dumpModule(out, arena, module)
	}
	return nil
}

func dumpModule(out io.Writer, arena *bc.Arena, module bc.Handle[bc.BCModule]) {
	m := module.Get()

	fmt.Fprintf(out, "  %d symbols, %d constants, %d types\n", m.SymbolCount, m.ConstantCount, m.TypeCount)

	symbols := bc.Resolve(arena, m.Symbols)
	for i := 0; i < int(m.SymbolCount); i++ {
		symbol := bc.Resolve(arena, *symbols.At(i))
		if symbol.IsNil() {
			fmt.Fprintf(out, "  symbol %d: <null>\n", i)
			continue
		}
		s := symbol.Get()
		fmt.Fprintf(out, "  symbol %d: %s %q type=%d\n", i, ir.Op(s.Op), cstring(arena, s.Name), s.TypeID)
		if ir.Op(s.Op) == ir.OpFunc {
			dumpFunc(out, arena, bc.BitCast[bc.BCFunc](symbol))
		}
	}

	constants := bc.Resolve(arena, m.Constants)
	for i := 0; i < int(m.ConstantCount); i++ {
		c := constants.At(i)
		payload := bc.BitCast[int64](bc.Resolve(arena, c.Ptr))
		fmt.Fprintf(out, "  constant %d: %s type=%d value=%d\n", i, ir.Op(c.Op), c.TypeID, *payload.Get())
	}

	types := bc.Resolve(arena, m.Types)
	for i := 0; i < int(m.TypeCount); i++ {
		typeHandle := bc.Resolve(arena, *types.At(i))
		t := typeHandle.Get()
		fmt.Fprintf(out, "  type %d: %s", t.ID, ir.Op(t.Op))
		if t.ArgCount > 0 {
			args := bc.TypeArgs(typeHandle)
			fmt.Fprintf(out, "(")
			for a := 0; a < int(t.ArgCount); a++ {
				if a > 0 {
					fmt.Fprintf(out, ", ")
				}
				fmt.Fprintf(out, "%d", bc.Resolve(arena, *args.At(a)).Get().ID)
			}
			fmt.Fprintf(out, ")")
		}
		fmt.Fprintf(out, "\n")
	}
}

func dumpFunc(out io.Writer, arena *bc.Arena, fn bc.Handle[bc.BCFunc]) {
	f := fn.Get()
	fmt.Fprintf(out, "    %d regs, %d blocks, %d imported consts\n", f.RegCount, f.BlockCount, f.ConstCount)

	regs := bc.Resolve(arena, f.Regs)
	for i := 0; i < int(f.RegCount); i++ {
		r := regs.At(i)
		fmt.Fprintf(out, "    reg %d: %s type=%d\n", i, ir.Op(r.Op), r.TypeID)
	}

	blocks := bc.Resolve(arena, f.Blocks)
	for i := 0; i < int(f.BlockCount); i++ {
		b := blocks.At(i)
		fmt.Fprintf(out, "    block %d: %d params, code at %d\n", i, b.ParamCount, uint64(b.Code))
	}

	consts := bc.Resolve(arena, f.Consts)
	for i := 0; i < int(f.ConstCount); i++ {
		c := consts.At(i)
		fmt.Fprintf(out, "    import ~%d: %s %d\n", i, c.Flavor, c.ID)
	}
}

// cstring reads a NUL-terminated string from the arena, or "" for a
// null name pointer.
func cstring(arena *bc.Arena, p bc.RawPtr[byte]) string {
	if p.IsNull() {
		return ""
	}
	data := arena.Bytes()[uint64(p):]
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}
