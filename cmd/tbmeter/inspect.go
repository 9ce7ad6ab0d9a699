package main

import (
	"debug/elf"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duskforge/tbmeter/internal/disasm"
	"github.com/duskforge/tbmeter/internal/engine"
)

var inspectAsm bool

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <binary>",
		Short: "Print a guest binary's entry point, main offset, and PIE flag without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().BoolVar(&inspectAsm, "asm", false, "also disassemble the first block at main/entry")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	img := engine.LoadBinaryImage(path)

	label := disasm.FuncName("entry")
	if img.MainOffset != img.EntryOffset {
		label = disasm.FuncName("main")
	}

	fmt.Printf("entry_offset: %#x\n", img.EntryOffset)
	fmt.Printf("main_offset:  %#x (%s)\n", img.MainOffset, label)
	fmt.Printf("is_pie:       %s\n", disasm.Detail(fmt.Sprintf("%v", img.IsPIE)))

	if !inspectAsm {
		return nil
	}
	if err := disassembleAt(path, img.MainOffset); err != nil {
		return fmt.Errorf("%s", disasm.Error(err.Error()))
	}
	return nil
}

// disassembleAt prints a short static disassembly of up to 16 instructions
// starting at offset, read directly from the ELF file's PT_LOAD data rather than a live
// guest — inspect never runs the binary, so there is no Unicorn image to
// read from.
func disassembleAt(path string, offset uint64) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if offset < prog.Vaddr || offset >= prog.Vaddr+prog.Filesz {
			continue
		}

		code := make([]byte, prog.Filesz-(offset-prog.Vaddr))
		if _, err := prog.ReadAt(code, int64(offset-prog.Vaddr)); err != nil {
			return fmt.Errorf("read code at %#x: %w", offset, err)
		}

		fmt.Println()
		for _, insn := range disasm.DecodeBlock(code, offset, 16) {
			fmt.Println(disasm.FormatLine(insn))
		}
		return nil
	}

	return fmt.Errorf("offset %#x not covered by any PT_LOAD segment", offset)
}
