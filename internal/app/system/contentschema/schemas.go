package contentschema

import "github.com/dalemusser/stratasite/internal/domain/models"

// HeroPages are the pages that carry a hero section.
var HeroPages = []string{"home", "curriculum", "team", "qualifications", "portfolio"}

var badges = func() []Field {
	var out []Field
	for _, n := range []string{"1", "2", "3"} {
		out = append(out,
			Field{Key: "badge" + n + "_label", Label: "Badge " + n + " label", Kind: Text{Max: 40}},
			Field{Key: "badge" + n + "_icon", Label: "Badge " + n + " icon", Kind: Text{Max: 40}},
		)
	}
	return out
}()

var schemas = map[string][]Field{
	models.KindHeroSections: {
		{Key: "page", Label: "Page", Required: true, Kind: Select{Options: HeroPages}},
		{Key: "eyebrow", Label: "Eyebrow", Kind: Text{Max: 80}},
		{Key: "headline", Label: "Headline", Required: true, Kind: Text{Max: 160}},
		{Key: "subheadline", Label: "Subheadline", Kind: TextArea{Max: 500}},
		{Key: "cta_label", Label: "Button label", Kind: Text{Max: 40}},
		{Key: "cta_url", Label: "Button link", Kind: URL{}},
		{Key: "image_url", Label: "Image", Kind: Image{}},
	},
	models.KindCurriculumWeeks: append([]Field{
		{Key: "week_number", Label: "Week", Required: true, Kind: Number{Min: 1, Max: 52}},
		{Key: "title", Label: "Title", Required: true, Kind: Text{Max: 120}},
		{Key: "description", Label: "Description", Kind: TextArea{Max: 1000}},
	}, badges...),
	models.KindProgramPhases: {
		{Key: "phase_number", Label: "Phase", Required: true, Kind: Number{Min: 1, Max: 12}},
		{Key: "title", Label: "Title", Required: true, Kind: Text{Max: 120}},
		{Key: "subtitle", Label: "Subtitle", Kind: Text{Max: 160}},
		{Key: "description", Label: "Description", Kind: TextArea{Max: 1000}},
		{Key: "duration", Label: "Duration", Help: "e.g. Weeks 1-4", Kind: Text{Max: 40}},
	},
	models.KindTeamMembers: {
		{Key: "slug", Label: "Slug", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "name", Label: "Name", Required: true, Kind: Text{Max: 120}},
		{Key: "positions", Label: "Positions", Kind: List{Max: 5, Item: []Field{
			{Key: "title", Label: "Title", Required: true, Kind: Text{Max: 120}},
			{Key: "organization", Label: "Organization", Kind: Text{Max: 120}},
		}}},
		{Key: "military_background", Label: "Military background", Kind: Text{Max: 160}},
		{Key: "linkedin_url", Label: "LinkedIn", Kind: URL{}},
		{Key: "image_url", Label: "Photo", Kind: Image{}},
		{Key: "bio", Label: "Bio", Kind: RichText{}},
	},
	models.KindFAQs: {
		{Key: "key", Label: "Key", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "question", Label: "Question", Required: true, Kind: Text{Max: 300}},
		{Key: "answer", Label: "Answer", Required: true, Kind: RichText{}},
		{Key: "category", Label: "Category", Kind: Text{Max: 60}},
	},
	models.KindPortfolioCompanies: {
		{Key: "key", Label: "Key", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "name", Label: "Name", Required: true, Kind: Text{Max: 120}},
		{Key: "description", Label: "Description", Kind: TextArea{Max: 500}},
		{Key: "logo_url", Label: "Logo", Kind: Image{}},
		{Key: "website_url", Label: "Website", Kind: URL{}},
		{Key: "sector", Label: "Sector", Kind: Text{Max: 60}},
	},
	models.KindQualifications: {
		{Key: "key", Label: "Key", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "title", Label: "Title", Required: true, Kind: Text{Max: 120}},
		{Key: "description", Label: "Description", Kind: TextArea{Max: 500}},
		{Key: "icon", Label: "Icon", Kind: Text{Max: 40}},
	},
	models.KindTestimonials: {
		{Key: "key", Label: "Key", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "quote", Label: "Quote", Required: true, Kind: TextArea{Max: 1000}},
		{Key: "author", Label: "Author", Required: true, Kind: Text{Max: 120}},
		{Key: "role", Label: "Role", Kind: Text{Max: 160}},
		{Key: "image_url", Label: "Photo", Kind: Image{}},
	},
	models.KindStats: {
		{Key: "key", Label: "Key", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "value", Label: "Value", Required: true, Help: "Shown as written, e.g. 120+", Kind: Text{Max: 20}},
		{Key: "label", Label: "Label", Required: true, Kind: Text{Max: 80}},
	},
	models.KindLegalDocuments: {
		{Key: "slug", Label: "Slug", Required: true, Kind: Text{Max: 80, Slug: true}},
		{Key: "title", Label: "Title", Required: true, Kind: Text{Max: 160}},
		{Key: "effective_date", Label: "Effective date", Help: "YYYY-MM-DD", Kind: Text{Max: 10}},
		{Key: "content", Label: "Content", Required: true, Kind: RichText{}},
	},
}

var metaFields = []Field{
	{Key: "is_visible", Label: "Visible", Kind: Bool{}},
	{Key: "order", Label: "Order", Kind: Number{Min: 1}},
}

// For returns the fields of kind, including the visibility and order toggles
// every kind shares. The slice is a copy.
func For(kind string) ([]Field, bool) {
	fields, ok := schemas[kind]
	if !ok {
		return nil, false
	}
	out := make([]Field, 0, len(fields)+len(metaFields))
	out = append(out, fields...)
	return append(out, metaFields...), true
}
