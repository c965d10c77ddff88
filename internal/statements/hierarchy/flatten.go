package hierarchy

import "github.com/shopspring/decimal"

// Row is one line of a flattened statement. The ordered row sequence is
// the single contract shared by the on-screen table, the spreadsheet
// exporter, and the PDF exporter; consumers must not re-derive the
// hierarchy themselves. A nil Amount renders as a blank cell.
type Row struct {
	Level    int              `json:"level"`
	Label    string           `json:"label"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Subtotal bool             `json:"isSubtotal"`
}

// Flatten walks a completed tree pre-order and emits the row sequence:
// a header row per group, children in insertion order, then a
// "Total <label>" subtotal row carrying the rolled-up amount. Leaf
// nodes emit a single amount row. Groups with no contributing entries
// still emit their header and a zero subtotal.
func Flatten(root *Node) []Row {
	if root == nil {
		return nil
	}
	rows := make([]Row, 0, 2*countNodes(root))
	flattenInto(&rows, root)
	return rows
}

func flattenInto(rows *[]Row, n *Node) {
	if n.leaf {
		amount := n.Amount
		*rows = append(*rows, Row{Level: int(n.Level), Label: n.Label, Amount: &amount})
		return
	}
	*rows = append(*rows, Row{Level: int(n.Level), Label: n.Label})
	for _, child := range n.children {
		flattenInto(rows, child)
	}
	total := n.Amount
	*rows = append(*rows, Row{Level: int(n.Level), Label: "Total " + n.Label, Amount: &total, Subtotal: true})
}

func countNodes(n *Node) int {
	count := 1
	for _, child := range n.children {
		count += countNodes(child)
	}
	return count
}
