package disasm

import "fmt"

// Annotator returns an optional inline comment for an instruction.
// Empty string means no annotation. Receives the full Inst for access
// to both raw encoding and address.
type Annotator func(inst Inst) string

// SymbolAnnotator labels instructions that sit at a known symbol address.
func SymbolAnnotator(lookup SymbolLookup) Annotator {
	return func(inst Inst) string {
		if lookup == nil {
			return ""
		}
		if name, ok := lookup(inst.Addr); ok {
			return fmt.Sprintf("<%s>", name)
		}
		return ""
	}
}

// CallAnnotator names the callee of direct calls.
func CallAnnotator(lookup SymbolLookup) Annotator {
	return func(inst Inst) string {
		if inst.Call == nil {
			return ""
		}
		if inst.Call.Indirect {
			return "-> <indirect>"
		}
		if lookup != nil {
			if name, ok := lookup(inst.Call.Target); ok {
				return "-> " + name
			}
		}
		return fmt.Sprintf("-> 0x%x", inst.Call.Target)
	}
}

// BranchAnnotator prints the absolute address of each resolved branch
// target, and the operand text of unresolvable ones.
func BranchAnnotator() Annotator {
	return func(inst Inst) string {
		if !inst.Kind.IsBranch() || len(inst.Targets) == 0 {
			return ""
		}
		t := inst.Targets[0]
		if !t.Resolved {
			return "?? " + t.String()
		}
		return fmt.Sprintf("=> 0x%x", TargetAddr(inst, t))
	}
}

// TargetAddr returns the absolute address a resolved target points to.
func TargetAddr(inst Inst, t Target) uint64 {
	return uint64(int64(inst.Addr) + int64(inst.Size) + t.Disp)
}

// annotate runs annotators in order and joins the non-empty results.
func annotate(inst Inst, annotators []Annotator) string {
	var out string
	for _, ann := range annotators {
		s := ann(inst)
		if s == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += s
	}
	return out
}
