package css

// Display is the computed display type. Inner display types and table-internal
// types share one closed set.
type Display uint8

const (
	DisplayBlock Display = iota
	DisplayInline
	DisplayInlineBlock
	DisplayFlowRoot
	DisplayFlex
	DisplayInlineFlex
	DisplayGrid
	DisplayInlineGrid
	DisplayTable
	DisplayInlineTable

	// Table internals
	DisplayTableBox // anonymous box produced inside a table wrapper
	DisplayTableRowGroup
	DisplayTableHeaderGroup
	DisplayTableFooterGroup
	DisplayTableRow
	DisplayTableCell
	DisplayTableColumnGroup
	DisplayTableColumn
	DisplayTableCaption

	DisplayContents
	DisplayNone
)

var displayNames = map[string]Display{
	"block":              DisplayBlock,
	"inline":             DisplayInline,
	"inline-block":       DisplayInlineBlock,
	"flow-root":          DisplayFlowRoot,
	"flex":               DisplayFlex,
	"inline-flex":        DisplayInlineFlex,
	"grid":               DisplayGrid,
	"inline-grid":        DisplayInlineGrid,
	"table":              DisplayTable,
	"inline-table":       DisplayInlineTable,
	"table-row-group":    DisplayTableRowGroup,
	"table-header-group": DisplayTableHeaderGroup,
	"table-footer-group": DisplayTableFooterGroup,
	"table-row":          DisplayTableRow,
	"table-cell":         DisplayTableCell,
	"table-column-group": DisplayTableColumnGroup,
	"table-column":       DisplayTableColumn,
	"table-caption":      DisplayTableCaption,
	"contents":           DisplayContents,
	"none":               DisplayNone,
}

func ParseDisplay(s string) (Display, bool) {
	d, ok := displayNames[s]
	return d, ok
}

func (d Display) String() string {
	if d == DisplayTableBox {
		return "table-box"
	}
	for name, v := range displayNames {
		if v == d {
			return name
		}
	}
	return "unknown"
}

// Inside is the inner display type that selects a formatting context.
type Inside uint8

const (
	InsideFlow Inside = iota
	InsideFlowRoot
	InsideFlex
	InsideGrid
	InsideTable
	InsideNone
)

func (d Display) Inside() Inside {
	switch d {
	case DisplayFlowRoot, DisplayInlineBlock:
		return InsideFlowRoot
	case DisplayFlex, DisplayInlineFlex:
		return InsideFlex
	case DisplayGrid, DisplayInlineGrid:
		return InsideGrid
	case DisplayTable, DisplayInlineTable:
		return InsideTable
	case DisplayNone, DisplayContents:
		return InsideNone
	}
	return InsideFlow
}

// IsTableInternal reports the boxes that make up a table below its wrapper.
func (d Display) IsTableInternal() bool {
	switch d {
	case DisplayTableRowGroup, DisplayTableHeaderGroup, DisplayTableFooterGroup,
		DisplayTableRow, DisplayTableCell, DisplayTableColumnGroup, DisplayTableColumn:
		return true
	}
	return false
}

func (d Display) IsTableRowGroup() bool {
	return d == DisplayTableRowGroup || d == DisplayTableHeaderGroup || d == DisplayTableFooterGroup
}
