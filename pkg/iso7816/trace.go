package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/emvcard/pkg/tlv"
)

// Transaction is one command and the response it got.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess reports a 9000 or 61XX response. A missing response is a failure.
func (t Transaction) IsSuccess() bool {
	return t.Response != nil && t.Response.Status.IsSuccess()
}

// Trace is every exchange made to carry out one logical command, in order.
type Trace []Transaction

// Last returns the final transaction, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Status is the status word of the final response, zero when there is none.
func (t Trace) Status() StatusWord {
	if last := t.Last(); last != nil && last.Response != nil {
		return last.Response.Status
	}
	return 0
}

// IsSuccess reports whether the final response succeeded.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	return last != nil && last.IsSuccess()
}

// Data reassembles the response data of the logical command: chunks fetched
// through successive GET RESPONSE commands are concatenated, and anything
// received before a 6CXX is discarded since the command is sent again.
func (t Trace) Data() []byte {
	var out []byte
	for _, tx := range t {
		if tx.Response == nil {
			continue
		}
		if _, retry := tx.Response.Status.ExactLength(); retry {
			out = nil
			continue
		}
		out = append(out, tx.Response.Data...)
	}
	return out
}

// Describe renders the trace for a human: one block per exchange followed by
// the outcome of the logical command.
func (t Trace) Describe() string {
	if len(t) == 0 {
		return "=== EMPTY TRACE ==="
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s COMMAND REPORT ===\n", t[0].Command.Instruction.Code)

	for i, tx := range t {
		cmd := tx.Command
		fmt.Fprintf(&sb, "[%d] %s | %s\n", i+1, cmd.Instruction, cmd.Class)
		for _, line := range parameterLines(cmd) {
			fmt.Fprintf(&sb, "    + %-8s %s\n", line[0]+":", line[1])
		}
		if len(cmd.Data) > 0 {
			fmt.Fprintf(&sb, "    + %-8s %X (%q)\n", "Data:", cmd.Data, tlv.PrintableASCII(cmd.Data))
		}
		if cmd.Ne > 0 {
			fmt.Fprintf(&sb, "    + %-8s %d\n", "Le:", cmd.Ne)
		}
		if tx.Response == nil {
			sb.WriteString("    + Result:  no response\n")
			continue
		}
		fmt.Fprintf(&sb, "    + %-8s [%s] %s\n", "Result:", tx.Response.Status, tx.Response.Status.Description())
		if n := len(tx.Response.Data); n > 0 {
			fmt.Fprintf(&sb, "    + %-8s %d bytes\n", "Payload:", n)
		}
	}

	status := t.Status()
	data := t.Data()
	fmt.Fprintf(&sb, "[=] OUTCOME: [%s] %s\n", status, status.Description())
	if len(data) == 0 {
		sb.WriteString("    - No data received.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "    + Length: %d bytes\n", len(data))
	fmt.Fprintf(&sb, "    + Dump:   %X\n", data)
	fmt.Fprintf(&sb, "    + ASCII:  %q", tlv.PrintableASCII(data))
	return sb.String()
}

// parameterLines decodes P1 and P2 for the commands this package builds.
func parameterLines(cmd *CommandAPDU) [][2]string {
	switch cmd.Instruction.Code {
	case InsSelect:
		occ, ctrl := DecodeSelectP2(cmd.P2)
		return [][2]string{
			{"P1", fmt.Sprintf("%02X -> %s", cmd.P1, SelectionMethod(cmd.P1))},
			{"P2", fmt.Sprintf("%02X -> %s, %s", cmd.P2, occ, ctrl)},
		}
	case InsReadRecord:
		sfi, mode := DecodeReadRecordP2(cmd.P2)
		record := fmt.Sprintf("%02X -> record %d", cmd.P1, cmd.P1)
		if !mode.ByNumber() {
			record = fmt.Sprintf("%02X -> identifier %02X", cmd.P1, cmd.P1)
		}
		file := fmt.Sprintf("SFI %d", sfi)
		if sfi == 0 {
			file = "current EF"
		}
		return [][2]string{
			{"P1", record},
			{"P2", fmt.Sprintf("%02X -> %s, %s", cmd.P2, file, mode)},
		}
	case InsGetResponse:
		return nil
	default:
		return [][2]string{{"P1-P2", fmt.Sprintf("%02X %02X", cmd.P1, cmd.P2)}}
	}
}
