package disasm

// CallEdge represents a call site extracted from disassembly.
type CallEdge struct {
	FromPC     uint64 `json:"from_pc"`
	Kind       string `json:"kind"`                // "call" or "icall"
	TargetPC   uint64 `json:"target_pc,omitempty"` // resolved VA for direct calls
	TargetName string `json:"target_name,omitempty"`
	Operand    string `json:"operand,omitempty"` // operand text for indirect calls
}

// Call edge kinds.
const (
	CallDirect   = "call"
	CallIndirect = "icall"
)

// ExtractCallEdges scans instructions for call sites. symbols resolves direct
// call targets to names; it may be nil.
func ExtractCallEdges(insts []Inst, symbols SymbolLookup) []CallEdge {
	var edges []CallEdge
	for _, inst := range insts {
		if inst.Call == nil {
			continue
		}
		if inst.Call.Indirect {
			edges = append(edges, CallEdge{
				FromPC:  inst.Addr,
				Kind:    CallIndirect,
				Operand: inst.Operands,
			})
			continue
		}
		e := CallEdge{
			FromPC:   inst.Addr,
			Kind:     CallDirect,
			TargetPC: inst.Call.Target,
		}
		if symbols != nil {
			if name, found := symbols(inst.Call.Target); found {
				e.TargetName = name
			}
		}
		edges = append(edges, e)
	}
	return edges
}
