// Package view lays out property listings as dashboard tables.
package view

import (
	"fmt"

	"propdesk/internal/property/model"
	"propdesk/internal/table"
)

var rowActions = []table.Action{
	{Name: "edit", Label: "Edit", Variant: "primary"},
	{Name: "delete", Label: "Delete", Variant: "danger"},
}

var statusDropdown = &table.Dropdown{Options: statusOptions(), Placeholder: "Select status"}

func statusOptions() []table.Option {
	opts := make([]table.Option, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		opts = append(opts, table.Option{Value: s, Label: s})
	}
	return opts
}

func city(l *model.Location) string {
	if l == nil {
		return ""
	}
	return l.City
}

func priceRange(p *model.PriceRange) string {
	if p == nil {
		return "Price on request"
	}
	if p.Max == 0 || p.Min == p.Max {
		return table.CompactINR(p.Min)
	}
	return fmt.Sprintf("%s - %s", table.CompactINR(p.Min), table.CompactINR(p.Max))
}

func PrimaryColumns() []table.Column[*model.PrimaryProperty] {
	return []table.Column[*model.PrimaryProperty]{
		{Key: "projectName", Header: "Project", Value: func(p *model.PrimaryProperty) any { return p.ProjectName }, Fixed: table.SideLeft, Width: 220},
		{Key: "developer", Header: "Developer", Value: func(p *model.PrimaryProperty) any {
			if p.Developer == nil {
				return ""
			}
			return p.Developer.Name
		}},
		{Key: "city", Header: "City", Value: func(p *model.PrimaryProperty) any { return city(p.Location) }},
		{Key: "stage", Header: "Stage", Value: func(p *model.PrimaryProperty) any { return p.Stage }},
		{Key: "price", Header: "Price", Render: func(p *model.PrimaryProperty) string { return priceRange(p.PriceRange) }, Width: 200},
		{Key: "towers", Header: "Towers", Value: func(p *model.PrimaryProperty) any { return len(p.Towers) }, Width: 90},
		{Key: "possessionDate", Header: "Possession", Value: func(p *model.PrimaryProperty) any { return p.PossessionDate }},
		{Key: "status", Header: "Status", Value: func(p *model.PrimaryProperty) any { return p.Status }, Dropdown: statusDropdown},
		{Key: "rera", Header: "RERA", Value: func(p *model.PrimaryProperty) any { return p.Rera != nil && p.Rera.Approved }, Checkbox: &table.Checkbox{TrueValue: true}, Fixed: table.SideRight, Width: 80},
	}
}

func PreReraColumns() []table.Column[*model.PreReraProperty] {
	return []table.Column[*model.PreReraProperty]{
		{Key: "projectName", Header: "Project", Value: func(p *model.PreReraProperty) any { return p.ProjectName }, Fixed: table.SideLeft, Width: 220},
		{Key: "developer", Header: "Developer", Value: func(p *model.PreReraProperty) any {
			if p.Developer == nil {
				return ""
			}
			return p.Developer.Name
		}},
		{Key: "city", Header: "City", Value: func(p *model.PreReraProperty) any { return city(p.Location) }},
		{Key: "expectedLaunch", Header: "Expected launch", Value: func(p *model.PreReraProperty) any { return p.ExpectedLaunch }},
		{Key: "expectedPrice", Header: "Expected price", Render: func(p *model.PreReraProperty) string { return priceRange(p.ExpectedPrice) }, Width: 200},
		{Key: "configurations", Header: "Configurations", Value: func(p *model.PreReraProperty) any { return len(p.Configurations) }, Width: 120},
		{Key: "status", Header: "Status", Value: func(p *model.PreReraProperty) any { return p.Status }, Dropdown: statusDropdown},
	}
}

func ResaleColumns() []table.Column[*model.ResaleProperty] {
	return []table.Column[*model.ResaleProperty]{
		{Key: "title", Header: "Title", Value: func(p *model.ResaleProperty) any { return p.Title }, Fixed: table.SideLeft, Width: 220},
		{Key: "propertyType", Header: "Type", Value: func(p *model.ResaleProperty) any { return p.PropertyType }, Fixed: table.SideLeft, Width: 110},
		{Key: "configuration", Header: "Configuration", Value: func(p *model.ResaleProperty) any { return p.Configuration }},
		{Key: "city", Header: "City", Value: func(p *model.ResaleProperty) any { return city(p.Location) }},
		{Key: "price", Header: "Price", Render: func(p *model.ResaleProperty) string { return table.INR(p.Price) }},
		{Key: "negotiable", Header: "Negotiable", Value: func(p *model.ResaleProperty) any { return p.Negotiable }, Checkbox: &table.Checkbox{TrueValue: true}, Width: 100},
		{Key: "status", Header: "Status", Value: func(p *model.ResaleProperty) any { return p.Status }, Dropdown: statusDropdown},
		{Key: "verified", Header: "Verified", Value: func(p *model.ResaleProperty) any { return p.Verified }, Checkbox: &table.Checkbox{TrueValue: true}, Fixed: table.SideRight, Width: 90},
	}
}

// Options holds the caller-controlled parts of a listing table.
type Options struct {
	Selected map[string]bool
	Compact  bool
}

// Table renders listings of one kind. Listings of another kind are rejected.
func Table(kind model.Kind, listings []model.Listing, o Options) (table.View, error) {
	switch kind {
	case model.KindPrimary:
		rows, err := rowsOf[*model.PrimaryProperty](listings)
		if err != nil {
			return table.View{}, err
		}
		return table.Render(rows, PrimaryColumns(), options[*model.PrimaryProperty](o)), nil
	case model.KindPreRera:
		rows, err := rowsOf[*model.PreReraProperty](listings)
		if err != nil {
			return table.View{}, err
		}
		return table.Render(rows, PreReraColumns(), options[*model.PreReraProperty](o)), nil
	case model.KindResale:
		rows, err := rowsOf[*model.ResaleProperty](listings)
		if err != nil {
			return table.View{}, err
		}
		return table.Render(rows, ResaleColumns(), options[*model.ResaleProperty](o)), nil
	}
	return table.View{}, fmt.Errorf("no table layout for kind %q", kind)
}

func rowsOf[R model.Listing](listings []model.Listing) ([]R, error) {
	rows := make([]R, 0, len(listings))
	for _, l := range listings {
		r, ok := l.(R)
		if !ok {
			return nil, fmt.Errorf("unexpected listing type %T", l)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func options[R model.Listing](o Options) table.Options[R] {
	return table.Options[R]{
		Bordered:     true,
		Striped:      true,
		Hover:        !o.Compact,
		StickyHeader: true,
		MaxHeight:    600,
		Selectable:   true,
		Selected:     o.Selected,
		RowKey:       func(r R) string { return r.GetID() },
		Actions:      rowActions,
		EmptyText:    "No listings yet",
	}
}
