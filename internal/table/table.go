// Package table builds view models for configurable data tables: typed column
// specs over any row type, fixed (sticky) columns with cumulative offsets,
// externally controlled row selection and per-row action buttons.
package table

import (
	"fmt"
	"reflect"
	"strconv"
)

const (
	DefaultWidth   = 150
	SelectionWidth = 48
	ActionsWidth   = 120
)

// Side pins a column to one edge of the scroll container.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

type CellKind string

const (
	KindText     CellKind = "text"
	KindCustom   CellKind = "custom"
	KindCheckbox CellKind = "checkbox"
	KindDropdown CellKind = "dropdown"
	KindSelect   CellKind = "select"
	KindActions  CellKind = "actions"
)

// SelectState is the tri-state of the select-all header checkbox.
type SelectState string

const (
	SelectNone SelectState = "none"
	SelectSome SelectState = "some"
	SelectAll  SelectState = "all"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Dropdown renders the cell as an editable select over Options.
type Dropdown struct {
	Options     []Option
	Placeholder string
}

// Checkbox renders the cell as a checkbox, checked when the field equals TrueValue.
type Checkbox struct {
	TrueValue any
}

type Column[R any] struct {
	Key    string
	Header string
	// Value extracts the raw field; used for checkbox, dropdown and the text fallback.
	Value    func(R) any
	Render   func(R) string
	Dropdown *Dropdown
	Checkbox *Checkbox
	Fixed    Side
	Width    int
}

func (c Column[R]) width() int {
	if c.Width > 0 {
		return c.Width
	}
	return DefaultWidth
}

type Action struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Variant string `json:"variant,omitempty"`
}

// Options controls styling, selection and row actions. Selection is owned by
// the caller: Selected holds the keys it considers selected.
type Options[R any] struct {
	Bordered     bool
	Striped      bool
	Hover        bool
	StickyHeader bool
	MaxHeight    int
	Selectable   bool
	Selected     map[string]bool
	RowKey       func(R) string
	Actions      []Action
	EmptyText    string
}

type Sticky struct {
	Side   Side `json:"side"`
	Offset int  `json:"offset"`
}

type HeaderCell struct {
	Key    string   `json:"key"`
	Text   string   `json:"text"`
	Kind   CellKind `json:"kind"`
	Width  int      `json:"width"`
	Sticky *Sticky  `json:"sticky,omitempty"`
}

type Cell struct {
	Key      string   `json:"key"`
	Kind     CellKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	Checked  bool     `json:"checked,omitempty"`
	Options  []Option `json:"options,omitempty"`
	Selected string   `json:"selected,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
	Width    int      `json:"width"`
	Sticky   *Sticky  `json:"sticky,omitempty"`
}

type Row struct {
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
	Cells    []Cell `json:"cells"`
}

type View struct {
	Headers      []HeaderCell `json:"headers"`
	Rows         []Row        `json:"rows"`
	SelectAll    SelectState  `json:"selectAll,omitempty"`
	Bordered     bool         `json:"bordered"`
	Striped      bool         `json:"striped"`
	Hover        bool         `json:"hover"`
	StickyHeader bool         `json:"stickyHeader"`
	MaxHeight    int          `json:"maxHeight,omitempty"`
	EmptyText    string       `json:"emptyText,omitempty"`
}

// Render lays out rows against cols. Every row gets one cell per column, plus a
// leading selection cell when opts.Selectable and a trailing actions cell when
// opts.Actions is non-empty.
func Render[R any](rows []R, cols []Column[R], opts Options[R]) View {
	view := View{
		Headers:      []HeaderCell{},
		Rows:         make([]Row, 0, len(rows)),
		Bordered:     opts.Bordered,
		Striped:      opts.Striped,
		Hover:        opts.Hover,
		StickyHeader: opts.StickyHeader,
		MaxHeight:    opts.MaxHeight,
		EmptyText:    opts.EmptyText,
	}
	if view.EmptyText == "" {
		view.EmptyText = "No records found"
	}

	offsets := stickyOffsets(cols, opts.Selectable, len(opts.Actions) > 0)
	selectSticky, actionsSticky := edgeSticky(cols)

	if opts.Selectable {
		view.Headers = append(view.Headers, HeaderCell{Key: "_select", Kind: KindSelect, Width: SelectionWidth, Sticky: selectSticky})
	}
	for i, col := range cols {
		view.Headers = append(view.Headers, HeaderCell{Key: col.Key, Text: col.Header, Kind: KindText, Width: col.width(), Sticky: offsets[i]})
	}
	if len(opts.Actions) > 0 {
		view.Headers = append(view.Headers, HeaderCell{Key: "_actions", Text: "Actions", Kind: KindActions, Width: ActionsWidth, Sticky: actionsSticky})
	}

	selectedCount := 0
	for i, rec := range rows {
		key := strconv.Itoa(i)
		if opts.RowKey != nil {
			key = opts.RowKey(rec)
		}
		row := Row{Key: key, Selected: opts.Selected[key], Cells: make([]Cell, 0, len(view.Headers))}
		if row.Selected {
			selectedCount++
		}

		if opts.Selectable {
			row.Cells = append(row.Cells, Cell{Key: "_select", Kind: KindSelect, Checked: row.Selected, Width: SelectionWidth, Sticky: selectSticky})
		}
		for ci, col := range cols {
			cell := renderCell(rec, col)
			cell.Sticky = offsets[ci]
			row.Cells = append(row.Cells, cell)
		}
		if len(opts.Actions) > 0 {
			row.Cells = append(row.Cells, Cell{Key: "_actions", Kind: KindActions, Actions: opts.Actions, Width: ActionsWidth, Sticky: actionsSticky})
		}
		view.Rows = append(view.Rows, row)
	}

	if opts.Selectable {
		view.SelectAll = selectState(selectedCount, len(rows))
	}
	return view
}

// renderCell applies checkbox > dropdown > custom renderer > raw value.
func renderCell[R any](rec R, col Column[R]) Cell {
	cell := Cell{Key: col.Key, Width: col.width()}

	var raw any
	if col.Value != nil {
		raw = col.Value(rec)
	}

	switch {
	case col.Checkbox != nil:
		cell.Kind = KindCheckbox
		cell.Checked = reflect.DeepEqual(raw, col.Checkbox.TrueValue)
	case col.Dropdown != nil:
		cell.Kind = KindDropdown
		cell.Options = col.Dropdown.Options
		cell.Selected = formatValue(raw)
		cell.Text = col.Dropdown.Placeholder
	case col.Render != nil:
		cell.Kind = KindCustom
		cell.Text = col.Render(rec)
	default:
		cell.Kind = KindText
		cell.Text = formatValue(raw)
	}
	return cell
}

// stickyOffsets returns, per column, the pixel offset from its pinned edge.
// Left offsets accumulate in column order after the selection column; right
// offsets accumulate from the right edge after the actions column.
func stickyOffsets[R any](cols []Column[R], selectable, hasActions bool) []*Sticky {
	out := make([]*Sticky, len(cols))

	left := 0
	if selectable {
		left = SelectionWidth
	}
	for i, col := range cols {
		if col.Fixed == SideLeft {
			out[i] = &Sticky{Side: SideLeft, Offset: left}
			left += col.width()
		}
	}

	right := 0
	if hasActions {
		right = ActionsWidth
	}
	for i := len(cols) - 1; i >= 0; i-- {
		if cols[i].Fixed == SideRight {
			out[i] = &Sticky{Side: SideRight, Offset: right}
			right += cols[i].width()
		}
	}
	return out
}

// edgeSticky pins the selection and actions columns when any data column is
// pinned to the same edge, so fixed columns never slide under them.
func edgeSticky[R any](cols []Column[R]) (selectSticky, actionsSticky *Sticky) {
	for _, col := range cols {
		switch col.Fixed {
		case SideLeft:
			selectSticky = &Sticky{Side: SideLeft}
		case SideRight:
			actionsSticky = &Sticky{Side: SideRight}
		}
	}
	return selectSticky, actionsSticky
}

func selectState(selected, total int) SelectState {
	switch {
	case total == 0 || selected == 0:
		return SelectNone
	case selected == total:
		return SelectAll
	default:
		return SelectSome
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
