package entities

import (
	"strconv"
	"time"
)

// MaxTagLength bounds every localized tag name and alias.
const MaxTagLength = 50

// Tag is a canonical vocabulary entry. Each localized name is unique within
// its own column. A blank name is stored as NULL so any number of tags may
// leave a locale unnamed.
type Tag struct {
	ID         uint      `gorm:"primaryKey"`
	NameEn     *string   `gorm:"size:50;uniqueIndex"`
	NameJa     *string   `gorm:"size:50;uniqueIndex"`
	NameEs     *string   `gorm:"size:50;uniqueIndex"`
	NamePt     *string   `gorm:"size:50;uniqueIndex"`
	ApprovedEn bool      `gorm:"not null;default:false"`
	ApprovedJa bool      `gorm:"not null;default:false"`
	ApprovedEs bool      `gorm:"not null;default:false"`
	ApprovedPt bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (t *Tag) namePtr(l Locale) **string {
	switch l {
	case LocaleJa:
		return &t.NameJa
	case LocaleEs:
		return &t.NameEs
	case LocalePt:
		return &t.NamePt
	default:
		return &t.NameEn
	}
}

func (t *Tag) approvedPtr(l Locale) *bool {
	switch l {
	case LocaleJa:
		return &t.ApprovedJa
	case LocaleEs:
		return &t.ApprovedEs
	case LocalePt:
		return &t.ApprovedPt
	default:
		return &t.ApprovedEn
	}
}

// Name returns the localized name, or "" when the locale is blank.
func (t *Tag) Name(l Locale) string {
	if p := *t.namePtr(l); p != nil {
		return *p
	}
	return ""
}

// SetName sets the localized name. An empty name clears the column.
func (t *Tag) SetName(l Locale, name string) {
	if name == "" {
		*t.namePtr(l) = nil
		return
	}
	*t.namePtr(l) = &name
}

// Approved returns the approval flag for l.
func (t *Tag) Approved(l Locale) bool {
	return *t.approvedPtr(l)
}

// SetApproved sets the approval flag for l.
func (t *Tag) SetApproved(l Locale, approved bool) {
	*t.approvedPtr(l) = approved
}

// DisplayName returns the name in l, falling back to the other locales in
// column order and finally to the numeric id.
func (t *Tag) DisplayName(l Locale) string {
	if name := t.Name(l); name != "" {
		return name
	}
	for _, other := range Locales {
		if name := t.Name(other); name != "" {
			return name
		}
	}
	return "#" + strconv.FormatUint(uint64(t.ID), 10)
}

// TagAlias maps an alternate display string to a tag for autocomplete.
type TagAlias struct {
	ID       uint   `gorm:"primaryKey"`
	TargetID uint   `gorm:"not null;index"`
	Name     string `gorm:"size:50;not null;uniqueIndex"`

	Target *Tag `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE"`
}
