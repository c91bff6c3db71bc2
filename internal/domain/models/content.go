package models

import (
	"strconv"
	"time"
)

// Content kinds. Each kind is stored in a collection of the same name.
const (
	KindHeroSections       = "hero_sections"
	KindCurriculumWeeks    = "curriculum_weeks"
	KindProgramPhases      = "program_phases"
	KindTeamMembers        = "team_members"
	KindFAQs               = "faqs"
	KindPortfolioCompanies = "portfolio_companies"
	KindQualifications     = "qualifications"
	KindTestimonials       = "testimonials"
	KindStats              = "stats"
	KindLegalDocuments     = "legal_documents"
)

// Unplaced is the order of a document that was never given a position.
// Written positions start at 1.
const Unplaced = 0

// Meta holds the bookkeeping fields shared by every content entity.
// It is embedded inline so the fields sit at the top level of each document.
type Meta struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	IsVisible bool      `bson:"is_visible" json:"is_visible"`
	Order     int       `bson:"order" json:"order"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ContentMeta returns the entity's bookkeeping fields.
// Promoted to every type that embeds Meta.
func (m Meta) ContentMeta() Meta { return m }

// Entity is implemented by every content kind.
//
// NaturalKey identifies the entity independently of its store-assigned ID.
// It is how persisted overrides are matched against built-in defaults, so
// it must be stable across edits. An empty key never matches.
type Entity interface {
	Kind() string
	NaturalKey() string
	ContentMeta() Meta
}

// Ranked is implemented by kinds whose display position comes from a
// domain field rather than Meta.Order.
type Ranked interface {
	Rank() int
}

// KindInfo describes a content kind for catalogs and admin tooling.
type KindInfo struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	KeyField   string `json:"key_field"`
	HardDelete bool   `json:"hard_delete"`
}

var contentKinds = []KindInfo{
	{Name: KindHeroSections, Label: "Hero sections", KeyField: "page"},
	{Name: KindCurriculumWeeks, Label: "Curriculum weeks", KeyField: "week_number"},
	{Name: KindProgramPhases, Label: "Program phases", KeyField: "phase_number"},
	{Name: KindTeamMembers, Label: "Team members", KeyField: "slug", HardDelete: true},
	{Name: KindFAQs, Label: "FAQs", KeyField: "key", HardDelete: true},
	{Name: KindPortfolioCompanies, Label: "Portfolio companies", KeyField: "key", HardDelete: true},
	{Name: KindQualifications, Label: "Qualifications", KeyField: "key"},
	{Name: KindTestimonials, Label: "Testimonials", KeyField: "key", HardDelete: true},
	{Name: KindStats, Label: "Stats", KeyField: "key"},
	{Name: KindLegalDocuments, Label: "Legal documents", KeyField: "slug"},
}

// ContentKinds returns the catalog of content kinds in display order.
func ContentKinds() []KindInfo {
	out := make([]KindInfo, len(contentKinds))
	copy(out, contentKinds)
	return out
}

// LookupKind returns the catalog entry for name.
func LookupKind(name string) (KindInfo, bool) {
	for _, k := range contentKinds {
		if k.Name == name {
			return k, true
		}
	}
	return KindInfo{}, false
}

// HeroSection is the banner block at the top of a page. One per page.
type HeroSection struct {
	Meta        `bson:",inline"`
	Page        string `bson:"page" json:"page"`
	Eyebrow     string `bson:"eyebrow,omitempty" json:"eyebrow,omitempty"`
	Headline    string `bson:"headline" json:"headline"`
	Subheadline string `bson:"subheadline,omitempty" json:"subheadline,omitempty"`
	CTALabel    string `bson:"cta_label,omitempty" json:"cta_label,omitempty"`
	CTAURL      string `bson:"cta_url,omitempty" json:"cta_url,omitempty"`
	ImageURL    string `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

func (HeroSection) Kind() string          { return KindHeroSections }
func (h HeroSection) NaturalKey() string { return h.Page }

// CurriculumWeek is one week of the program curriculum.
type CurriculumWeek struct {
	Meta        `bson:",inline"`
	WeekNumber  int    `bson:"week_number" json:"week_number"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Badge1Label string `bson:"badge1_label,omitempty" json:"badge1_label,omitempty"`
	Badge1Icon  string `bson:"badge1_icon,omitempty" json:"badge1_icon,omitempty"`
	Badge2Label string `bson:"badge2_label,omitempty" json:"badge2_label,omitempty"`
	Badge2Icon  string `bson:"badge2_icon,omitempty" json:"badge2_icon,omitempty"`
	Badge3Label string `bson:"badge3_label,omitempty" json:"badge3_label,omitempty"`
	Badge3Icon  string `bson:"badge3_icon,omitempty" json:"badge3_icon,omitempty"`
}

func (CurriculumWeek) Kind() string          { return KindCurriculumWeeks }
func (w CurriculumWeek) NaturalKey() string { return numberKey(w.WeekNumber) }
func (w CurriculumWeek) Rank() int          { return w.WeekNumber }

// ProgramPhase is one phase of the program timeline.
type ProgramPhase struct {
	Meta        `bson:",inline"`
	PhaseNumber int    `bson:"phase_number" json:"phase_number"`
	Title       string `bson:"title" json:"title"`
	Subtitle    string `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Duration    string `bson:"duration,omitempty" json:"duration,omitempty"`
}

func (ProgramPhase) Kind() string          { return KindProgramPhases }
func (p ProgramPhase) NaturalKey() string { return numberKey(p.PhaseNumber) }
func (p ProgramPhase) Rank() int          { return p.PhaseNumber }

// Position is one role a team member holds.
type Position struct {
	Title        string `bson:"title" json:"title"`
	Organization string `bson:"organization,omitempty" json:"organization,omitempty"`
}

// TeamMember is a person shown on the team page.
type TeamMember struct {
	Meta               `bson:",inline"`
	Slug               string     `bson:"slug" json:"slug"`
	Name               string     `bson:"name" json:"name"`
	Positions          []Position `bson:"positions,omitempty" json:"positions,omitempty"`
	MilitaryBackground string     `bson:"military_background,omitempty" json:"military_background,omitempty"`
	LinkedInURL        string     `bson:"linkedin_url,omitempty" json:"linkedin_url,omitempty"`
	ImageURL           string     `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Bio                string     `bson:"bio,omitempty" json:"bio,omitempty"`
}

func (TeamMember) Kind() string          { return KindTeamMembers }
func (m TeamMember) NaturalKey() string { return m.Slug }

// FAQ is a question and answer pair.
type FAQ struct {
	Meta     `bson:",inline"`
	Key      string `bson:"key" json:"key"`
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
}

func (FAQ) Kind() string          { return KindFAQs }
func (f FAQ) NaturalKey() string { return f.Key }

// PortfolioCompany is a company shown on the portfolio page.
type PortfolioCompany struct {
	Meta        `bson:",inline"`
	Key         string `bson:"key" json:"key"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	LogoURL     string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	WebsiteURL  string `bson:"website_url,omitempty" json:"website_url,omitempty"`
	Sector      string `bson:"sector,omitempty" json:"sector,omitempty"`
}

func (PortfolioCompany) Kind() string          { return KindPortfolioCompanies }
func (c PortfolioCompany) NaturalKey() string { return c.Key }

// Qualification is an applicant requirement.
type Qualification struct {
	Meta        `bson:",inline"`
	Key         string `bson:"key" json:"key"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string `bson:"icon,omitempty" json:"icon,omitempty"`
}

func (Qualification) Kind() string          { return KindQualifications }
func (q Qualification) NaturalKey() string { return q.Key }

// Testimonial is a quote from a participant or partner.
type Testimonial struct {
	Meta     `bson:",inline"`
	Key      string `bson:"key" json:"key"`
	Quote    string `bson:"quote" json:"quote"`
	Author   string `bson:"author" json:"author"`
	Role     string `bson:"role,omitempty" json:"role,omitempty"`
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

func (Testimonial) Kind() string          { return KindTestimonials }
func (t Testimonial) NaturalKey() string { return t.Key }

// Stat is a headline number on the home page.
type Stat struct {
	Meta  `bson:",inline"`
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
	Label string `bson:"label" json:"label"`
}

func (Stat) Kind() string          { return KindStats }
func (s Stat) NaturalKey() string { return s.Key }

// LegalDocument is a policy page such as the privacy policy.
// Content is sanitized HTML.
type LegalDocument struct {
	Meta          `bson:",inline"`
	Slug          string `bson:"slug" json:"slug"`
	Title         string `bson:"title" json:"title"`
	Content       string `bson:"content" json:"content"`
	EffectiveDate string `bson:"effective_date,omitempty" json:"effective_date,omitempty"`
}

func (LegalDocument) Kind() string          { return KindLegalDocuments }
func (d LegalDocument) NaturalKey() string { return d.Slug }

func numberKey(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
