package model

import (
	"fmt"
	"time"

	"propdesk/pkg/apperror"
)

type Kind string

const (
	KindPrimary Kind = "primary"
	KindPreRera Kind = "prerera"
	KindResale  Kind = "resale"
)

var collections = map[Kind]string{
	KindPrimary: "primary_properties",
	KindPreRera: "prerera_properties",
	KindResale:  "resale_properties",
}

func Kinds() []Kind {
	return []Kind{KindPrimary, KindPreRera, KindResale}
}

// ParseKind accepts the kind names used in query strings.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := collections[k]; !ok {
		return "", apperror.Invalid("unknown property kind %q", s)
	}
	return k, nil
}

func (k Kind) Collection() string {
	return collections[k]
}

// Listing is implemented by every property record type.
type Listing interface {
	GetID() string
	SetID(id string)
	Created(now time.Time)
	Validate() error
}

// New returns an empty record of the given kind, ready to be decoded into.
func New(k Kind) (Listing, error) {
	switch k {
	case KindPrimary:
		return &PrimaryProperty{}, nil
	case KindPreRera:
		return &PreReraProperty{}, nil
	case KindResale:
		return &ResaleProperty{}, nil
	}
	return nil, fmt.Errorf("unknown property kind %q", k)
}

type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meta) GetID() string   { return m.ID }
func (m *Meta) SetID(id string) { m.ID = id }

// Created resets both timestamps to now, discarding any client-supplied values.
func (m *Meta) Created(now time.Time) {
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Protected lists the fields an update may not change.
var Protected = []string{"id", "createdAt"}

type Location struct {
	Address   string  `json:"address,omitempty"`
	Locality  string  `json:"locality,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Pincode   string  `json:"pincode,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	MapURL    string  `json:"mapUrl,omitempty"`
}

type Developer struct {
	Name    string `json:"name,omitempty"`
	Website string `json:"website,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type Rera struct {
	Approved     bool   `json:"approved"`
	Number       string `json:"number,omitempty"`
	Status       string `json:"status,omitempty"`
	RegisteredOn string `json:"registeredOn,omitempty"`
	ExpiresOn    string `json:"expiresOn,omitempty"`
}

type Area struct {
	Value            float64 `json:"value,omitempty"`
	Unit             string  `json:"unit,omitempty"`
	CarpetArea       float64 `json:"carpetArea,omitempty"`
	BuiltUpArea      float64 `json:"builtUpArea,omitempty"`
	OpenSpacePercent float64 `json:"openSpacePercent,omitempty"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Asset references an uploaded image or PDF.
type Asset struct {
	Name        string `json:"name,omitempty"`
	URL         string `json:"url"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type Unit struct {
	Configuration string  `json:"configuration"`
	CarpetArea    float64 `json:"carpetArea,omitempty"`
	SuperArea     float64 `json:"superArea,omitempty"`
	Price         float64 `json:"price,omitempty"`
	Count         int     `json:"count,omitempty"`
}

// Tower.Layout holds the unit numbers per floor, bottom floor first.
type Tower struct {
	Name          string     `json:"name"`
	Floors        int        `json:"floors,omitempty"`
	UnitsPerFloor int        `json:"unitsPerFloor,omitempty"`
	Layout        [][]string `json:"layout,omitempty"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type PrimaryProperty struct {
	Meta
	ProjectName    string      `json:"projectName"`
	ProjectType    string      `json:"projectType,omitempty"`
	Stage          string      `json:"stage,omitempty"`
	Developer      *Developer  `json:"developer,omitempty"`
	Location       *Location   `json:"location,omitempty"`
	Rera           *Rera       `json:"rera,omitempty"`
	Area           *Area       `json:"area,omitempty"`
	Towers         []Tower     `json:"towers,omitempty"`
	Units          []Unit      `json:"units,omitempty"`
	Amenities      []string    `json:"amenities,omitempty"`
	PriceRange     *PriceRange `json:"priceRange,omitempty"`
	PossessionDate string      `json:"possessionDate,omitempty"`
	Images         []Asset     `json:"images,omitempty"`
	Documents      []Asset     `json:"documents,omitempty"`
	Status         string      `json:"status,omitempty"`
}

func (p *PrimaryProperty) Validate() error {
	if p.ProjectName == "" {
		return apperror.Invalid("projectName is required")
	}
	if p.PriceRange != nil && p.PriceRange.Max > 0 && p.PriceRange.Min > p.PriceRange.Max {
		return apperror.Invalid("priceRange.min must not exceed priceRange.max")
	}
	return nil
}

type PreReraProperty struct {
	Meta
	ProjectName    string      `json:"projectName"`
	Developer      *Developer  `json:"developer,omitempty"`
	Location       *Location   `json:"location,omitempty"`
	ExpectedLaunch string      `json:"expectedLaunch,omitempty"`
	Configurations []Unit      `json:"configurations,omitempty"`
	ExpectedPrice  *PriceRange `json:"expectedPrice,omitempty"`
	Status         string      `json:"status,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	Images         []Asset     `json:"images,omitempty"`
}

func (p *PreReraProperty) Validate() error {
	if p.ProjectName == "" {
		return apperror.Invalid("projectName is required")
	}
	return nil
}

type ResaleProperty struct {
	Meta
	Title         string    `json:"title"`
	PropertyType  string    `json:"propertyType,omitempty"`
	Configuration string    `json:"configuration,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Area          *Area     `json:"area,omitempty"`
	Price         float64   `json:"price"`
	Negotiable    bool      `json:"negotiable"`
	Floor         int       `json:"floor,omitempty"`
	TotalFloors   int       `json:"totalFloors,omitempty"`
	Facing        string    `json:"facing,omitempty"`
	Furnishing    string    `json:"furnishing,omitempty"`
	AgeYears      int       `json:"ageYears,omitempty"`
	Owner         *Contact  `json:"owner,omitempty"`
	Amenities     []string  `json:"amenities,omitempty"`
	Images        []Asset   `json:"images,omitempty"`
	Status        string    `json:"status,omitempty"`
	Verified      bool      `json:"verified"`
}

func (p *ResaleProperty) Validate() error {
	if p.Title == "" {
		return apperror.Invalid("title is required")
	}
	if p.Price < 0 {
		return apperror.Invalid("price must not be negative")
	}
	if p.TotalFloors > 0 && p.Floor > p.TotalFloors {
		return apperror.Invalid("floor %d is above totalFloors %d", p.Floor, p.TotalFloors)
	}
	return nil
}

// Statuses offered in the listing tables.
var Statuses = []string{"available", "booked", "sold", "on-hold"}
